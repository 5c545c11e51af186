// Package main provides the sg CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	// configPath overrides the global config file location
	configPath string

	// workspaceDir overrides the configured workspace directory
	workspaceDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sg",
	Short: "Explore and annotate research paper graphs",
	Long: `sg builds a graph of research papers from search results and grows it
by expanding citations. Clusters, structural gaps, trends and inferred
conceptual links are layered on top of the graph.

The graph and every overlay persist between invocations in a workspace
snapshot, so commands compose:

  sg search "b cell phylogenetics"
  sg expand <paper-id>
  sg gaps
  sg gaps select <gap-id>
  sg visible --human

All commands output JSON by default. Use --human for tables.

Configuration is read from $XDG_CONFIG_HOME/sg/config.yml. The variables
SG_API_URL, SG_TOKEN and SG_LOG_LEVEL override it, and a .env file in the
working directory is loaded first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/sg/config.yml)")
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "workspace", "", "Workspace directory (overrides config)")
	rootCmd.Version = Version
}
