package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var remAccessCmd = &cobra.Command{
	Use:   "remaccess <filename> <user>",
	Short: "Revoke a user's access to a file (owner only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		reply, err := c.Command(wire.VerbRemAccess, args[0], args[1])
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
