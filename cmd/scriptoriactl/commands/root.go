// Package commands implements scriptoriactl's single-shot subcommands:
// one cobra command per wire verb, each opening its own name-node
// session, issuing one command, and exiting.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/pkg/client"
	"github.com/scriptoria/scriptoria/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	serverAddr string
	username   string
	cfgFile    string
)

var rootCmd = &cobra.Command{
	Use:   "scriptoriactl",
	Short: "Non-interactive client for a scriptoria cluster",
	Long: `scriptoriactl issues a single command against a scriptoria name
node and exits. It is not a REPL: scripts call it once per operation.

Examples:
  scriptoriactl --server localhost:9000 --user alice create notes.txt
  scriptoriactl --server localhost:9000 --user alice read notes.txt
  scriptoriactl --server localhost:9000 --user alice write notes.txt 0 0 "Hello world."`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == initCmd || cmd == versionCmd {
			return nil
		}
		return fillFromClientConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "name node address, host:port (defaults to the value in --config)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "username to connect as (defaults to the value in --config)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "client config file (default: $XDG_CONFIG_HOME/scriptoria/scriptoriactl.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(addAccessCmd)
	rootCmd.AddCommand(remAccessCmd)
}

// fillFromClientConfig fills any --server/--user flag left empty from the
// client config file, and fails only if both the flag and the config are
// unset for the field a command is about to use.
func fillFromClientConfig() error {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultClientConfigPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.LoadClientConfig(path)
	if err != nil {
		return err
	}
	if serverAddr == "" {
		serverAddr = cfg.Server
	}
	if username == "" {
		username = cfg.User
	}
	if serverAddr == "" {
		return fmt.Errorf("no name node address: pass --server or run 'scriptoriactl init'")
	}
	if username == "" {
		return fmt.Errorf("no username: pass --user or run 'scriptoriactl init'")
	}
	return nil
}

// connect dials the name node with the resolved --server/--user values.
func connect() (*client.Client, error) {
	return client.Connect(serverAddr, username)
}

// dialStorage opens a direct connection to a storage node address
// handed back by a name-node REDIRECT.
func dialStorage(addr string) (*client.StorageConn, error) {
	return client.DialStorage(addr)
}
