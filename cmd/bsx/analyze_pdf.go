package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(analyzePDFCmd)
}

var analyzePDFCmd = &cobra.Command{
	Use:   "analyze-pdf <file>",
	Short: "Summarize a local PDF",
	Long: `Summarize a local PDF.

The file is copied into the uploads directory, its text is extracted and
summarized. Uploads are not cached and never touch the network except for
the language model.

Examples:
  bsx analyze-pdf ~/Downloads/paper.pdf
  bsx analyze-pdf paper.pdf --human`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzePDF,
}

func runAnalyzePDF(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		exitWithError(ExitError, "opening %s: %v", path, err)
	}
	defer f.Close()

	cfg := mustLoadConfig()
	// Uploads bypass the cache, so the index is never opened.
	p, _ := mustBuildPipeline(cfg, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := p.ProcessUpload(ctx, filepath.Base(path), f)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("%s\n\n%s\n", result.Filename, result.Summary)
		if result.TextPreview != "" {
			fmt.Printf("\nPreview:\n    %s\n", wrapText(truncateString(result.TextPreview, PreviewMaxLen), TextWrapWidth, "    "))
		}
		return nil
	}
	return outputJSON(result)
}
