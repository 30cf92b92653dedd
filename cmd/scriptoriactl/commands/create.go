package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var createCmd = &cobra.Command{
	Use:   "create <filename>",
	Short: "Create a new file, owned by the connecting user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		reply, err := c.Command(wire.VerbCreate, args[0])
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
