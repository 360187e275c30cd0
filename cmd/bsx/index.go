package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/storage"
)

var indexLimit int

func init() {
	indexSearchCmd.Flags().IntVar(&indexLimit, "limit", DefaultListLimit, "Maximum results to return")
	indexListCmd.Flags().IntVar(&indexLimit, "limit", DefaultListLimit, "Maximum results to return (0 for all)")
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexSearchCmd)
	indexCmd.AddCommand(indexListCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Query the analysis index",
	Long: `Query the analysis index.

The index is a SQLite database derived from the cache directory. It is
updated whenever a new analysis is cached and can be rebuilt from the cache
at any time.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from cached analyses",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over titles and summaries",
	Long: `Full-text search over titles and summaries.

Examples:
  bsx index search "bone density"
  bsx index search microgravity --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexSearch,
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed analyses",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

// RebuildResponse is the response for index rebuild.
type RebuildResponse struct {
	Status  string `json:"status"`
	Indexed int    `json:"indexed"`
	Skipped []int  `json:"skipped"`
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenIndex(cfg)
	defer db.Close()

	indexed, skipped, err := db.RebuildFromCache(openStore(cfg))
	if err != nil {
		exitWithError(ExitError, "rebuilding index: %v", err)
	}
	if skipped == nil {
		skipped = []int{}
	}

	if humanOutput {
		fmt.Printf("Indexed %d analyses\n", indexed)
		if len(skipped) > 0 {
			fmt.Printf("Skipped %d unreadable entries: %s\n", len(skipped), formatIDs(skipped))
		}
		return nil
	}
	return outputJSON(RebuildResponse{Status: "rebuilt", Indexed: indexed, Skipped: skipped})
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenIndex(cfg)
	defer db.Close()

	entries, err := db.Search(args[0], indexLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}
	return outputEntries(entries)
}

func runIndexList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenIndex(cfg)
	defer db.Close()

	entries, err := db.List(indexLimit)
	if err != nil {
		exitWithError(ExitError, "listing: %v", err)
	}
	return outputEntries(entries)
}

func outputEntries(entries []storage.Entry) error {
	// Empty result is not an error
	if entries == nil {
		entries = []storage.Entry{}
	}

	if !humanOutput {
		return outputJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No analyses found")
		return nil
	}
	fmt.Printf("Found %d analyses:\n\n", len(entries))
	for _, e := range entries {
		fmt.Printf("[%d] %s\n", e.PubID, truncateString(e.Title, ListTitleMaxLen))
		fmt.Printf("    %s  %s\n", e.Source, e.Link)
		if e.Snippet != "" {
			fmt.Printf("    %s\n", wrapText(e.Snippet, TextWrapWidth, "    "))
		}
		fmt.Println()
	}
	return nil
}

// formatIDs formats ids as a comma-separated list.
func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
