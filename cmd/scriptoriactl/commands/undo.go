package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var undoCmd = &cobra.Command{
	Use:   "undo <filename>",
	Short: "Revert a file to its pre-write snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		addr, err := c.Redirect(wire.VerbUndo, args[0])
		if err != nil {
			return err
		}

		sc, err := dialStorage(addr)
		if err != nil {
			return err
		}
		defer sc.Close()

		reply, err := sc.Command(wire.VerbUndo, args[0])
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
