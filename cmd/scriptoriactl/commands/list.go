package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with an active session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		lines, err := c.MultiCommand(wire.VerbList)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}
