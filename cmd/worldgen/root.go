package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worldgen",
	Short: "Turn world descriptions into terrain generator configurations",
	Long: `Worldgen asks a language model for the parameters of a 3D world that
matches a free-text description, then clamps, repairs and reconciles them
into a configuration the terrain renderer accepts.

Quick start:
  worldgen serve                          # Start the HTTP server
  worldgen generate "a misty pine forest" # Generate from the command line

Inspection:
  worldgen schema    # Show module field definitions
  worldgen stats     # Summarize the generation journal
  worldgen validate  # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "worldgen.yaml", "config file path")
}
