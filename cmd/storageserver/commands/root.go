// Package commands implements the storageserver CLI: start a storage
// node process and report its version.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "storageserver",
	Short: "scriptoria storage node — document store and command loop",
	Long: `storageserver holds some subset of a scriptoria cluster's files as
primary: their sentence-structured documents, the cross-session
sentence lock table, and the persistent per-client command loop that
serves CREATE/READ/WRITE/DELETE/INFO/STREAM/UNDO.

Use "storageserver [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
