package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var addAccessCmd = &cobra.Command{
	Use:   "addaccess <-R|-W> <filename> <user>",
	Short: "Grant read or write access to a file (owner only)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		flag, filename, user := args[0], args[1], args[2]
		if flag != "-R" && flag != "-W" {
			return fmt.Errorf("access flag must be -R or -W, got %q", flag)
		}

		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		reply, err := c.Command(wire.VerbAddAccess, flag, filename, user)
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
