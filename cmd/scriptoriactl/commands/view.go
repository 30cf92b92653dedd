package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

var (
	viewAll  bool
	viewLong bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "List routed files, filtered to readable ones unless --all",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		defer c.Close()

		var flags []string
		if viewAll {
			flags = append(flags, "-a")
		}
		if viewLong {
			flags = append(flags, "-l")
		}

		lines, err := c.MultiCommand(wire.VerbView, flags...)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	viewCmd.Flags().BoolVarP(&viewAll, "all", "a", false, "list every routed file, not just ones the caller can read")
	viewCmd.Flags().BoolVarP(&viewLong, "long", "l", false, "render NAME|PRIMARY|OWNER as a table")
}
