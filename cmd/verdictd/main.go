// Package main implements the verdictd CLI: run fraud decisions over
// transactions and serve operational metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath overrides the default config file location.
	configPath string
	// version information, set at build time.
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "verdictd",
	Short: "Transaction fraud decision engine",
	Long: `verdictd runs a fixed multi-agent decision pipeline over card
transactions: evidence collection, consolidation, adversarial debate,
decision with deterministic safety overrides, and explanation.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/verdictd/config.yaml)")
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(serveMetricsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the verdictd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}
