package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample scriptoriactl config file",
	Long: `init writes a sample client config file holding --server/--user
defaults, so scripts calling scriptoriactl repeatedly don't need to repeat
both flags on every invocation.

By default the file is created at
$XDG_CONFIG_HOME/scriptoria/scriptoriactl.yaml. Use --config to pick a
different path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			var err error
			path, err = config.DefaultClientConfigPath()
			if err != nil {
				return err
			}
		}
		if err := config.InitClientConfig(path, initForce); err != nil {
			return err
		}
		fmt.Printf("Config file created at: %s\n", path)
		fmt.Println("Edit it to set your name node address and username.")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
