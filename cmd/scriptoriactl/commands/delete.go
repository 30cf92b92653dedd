package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a file (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		reply, err := c.Command(wire.VerbDelete, args[0])
		if err != nil {
			return err
		}
		if !wire.IsPositive(wire.Split(reply)[0]) {
			return fmt.Errorf("%s", reply)
		}
		fmt.Println(reply)
		return nil
	},
}
