package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var readCmd = &cobra.Command{
	Use:   "read <filename>",
	Short: "Print a file's sentences, one per line with its index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		addr, err := c.Redirect(wire.VerbRead, args[0])
		if err != nil {
			return err
		}

		sc, err := dialStorage(addr)
		if err != nil {
			return err
		}
		defer sc.Close()

		lines, err := sc.MultiCommand(wire.VerbRead, args[0])
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}
