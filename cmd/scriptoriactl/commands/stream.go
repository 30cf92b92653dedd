package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var streamCmd = &cobra.Command{
	Use:   "stream <filename>",
	Short: "Read a file word by word, paced by the storage node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		addr, err := c.Redirect(wire.VerbStream, args[0])
		if err != nil {
			return err
		}

		sc, err := dialStorage(addr)
		if err != nil {
			return err
		}
		defer sc.Close()

		lines, err := sc.MultiCommand(wire.VerbStream, args[0])
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}
