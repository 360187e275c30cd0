// Package main provides the bsx CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath overrides the config file location
var configPath string

func main() {
	// A missing .env file is fine; variables may come from the environment.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bsx",
	Short: "Publication content acquisition and analysis",
	Long: `bsx fetches the full text of catalogued bioscience publications,
summarizes their methodology, results and knowledge gaps with a language
model, and caches each analysis on disk.

Content comes from a structured full-text API when the link allows it,
falling back to downloading and extracting the PDF. All commands output
JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $BSX_CONFIG or ~/.config/bsx/config.yml)")
	rootCmd.Version = Version
}
