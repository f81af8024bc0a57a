// Package commands implements the lis CLI, grounded on
// marmos91-dittofs/cmd/dfs/commands/root.go's cobra root-command shape
// (persistent --config flag, Execute/GetRootCmd, silenced usage/errors).
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
	Use:   "lis",
	Short: "Laboratory instrument middleware",
	Long: `lis bridges clinical laboratory analyzers speaking ASTM E1394 or
HL7 v2.x over MLLP to a hospital information system.

Use "lis [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nramh-lis/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("lis %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}

func getConfigFile() string {
	return cfgFile
}
