package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/config"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long: `Show configuration.

Configuration is read from $BSX_CONFIG, --config, or
~/.config/bsx/config.yml, merged over built-in defaults, and then
overridden by environment variables:

  BSX_DATA_DIR        Data directory (pdfs/, cache/, uploads/)
  BSX_CATALOG         Publication catalog CSV
  BSX_LOG_LEVEL       debug, info, warn or error
  BSX_MODEL_BACKEND   ollama or openai
  BSX_MODEL           Model name
  OLLAMA_HOST         Ollama base URL
  OPENAI_BASE_URL     OpenAI-compatible base URL
  OPENAI_API_KEY      OpenAI API key

A .env file in the working directory is loaded first.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	data, err := cfg.Marshal()
	if err != nil {
		exitWithError(ExitError, "encoding config: %v", err)
	}
	if humanOutput {
		fmt.Print(string(data))
		return nil
	}

	// Round-trip through YAML so JSON keys and durations match the file format.
	var out map[string]interface{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		exitWithError(ExitError, "encoding config: %v", err)
	}
	return outputJSON(out)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.Path()
	}

	if humanOutput {
		fmt.Println(path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "ok", Path: path})
}
