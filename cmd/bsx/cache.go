package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/cache"
	"github.com/LsLisan/NASA-Bioscience-Dashboard/internal/storage"
)

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheRmCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage cached analyses",
	Long: `Inspect and manage cached analyses.

Cache entries never expire. Remove an entry to force the publication to be
fetched and summarized again on its next analysis.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached publication ids",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <pub-id>",
	Short: "Show a cached analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheShow,
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <pub-id>",
	Short: "Remove a cached analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheRm,
}

// CacheListResponse is the response for cache list.
type CacheListResponse struct {
	Dir   string `json:"dir"`
	IDs   []int  `json:"ids"`
	Count int    `json:"count"`
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	store := openStore(cfg)

	ids, err := store.List()
	if err != nil {
		exitWithError(ExitError, "listing cache: %v", err)
	}
	if ids == nil {
		ids = []int{}
	}

	if humanOutput {
		if len(ids) == 0 {
			fmt.Println("No cached analyses")
			return nil
		}
		fmt.Printf("%d cached analyses in %s:\n", len(ids), store.Dir())
		for _, id := range ids {
			fmt.Printf("  %d\n", id)
		}
		return nil
	}
	return outputJSON(CacheListResponse{Dir: store.Dir(), IDs: ids, Count: len(ids)})
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	cfg := mustLoadConfig()

	result, err := openStore(cfg).Get(id)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	if result == nil {
		exitWithError(ExitDataError, "no cached analysis for publication %d", id)
	}

	if humanOutput {
		printAnalysisHuman(result)
		return nil
	}
	return outputJSON(result)
}

func runCacheRm(cmd *cobra.Command, args []string) error {
	id := mustParseID(args[0])
	cfg := mustLoadConfig()
	store := openStore(cfg)
	db := mustOpenIndex(cfg)
	defer db.Close()

	removed, err := removeAnalysis(store, db, id)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if !removed {
		exitWithError(ExitDataError, "no cached analysis for publication %d", id)
	}

	if humanOutput {
		fmt.Printf("Removed cached analysis for publication %d\n", id)
		return nil
	}
	return outputJSON(StatusResponse{Status: "removed", Path: store.Path(id)})
}

// removeAnalysis deletes the cache entry for id and its index row. It
// reports whether a cache entry existed; a stale index row is dropped either way.
func removeAnalysis(store *cache.Store, db *storage.DB, id int) (bool, error) {
	removed, err := store.Delete(id)
	if err != nil {
		return false, fmt.Errorf("removing cache entry: %w", err)
	}
	if _, err := db.Delete(id); err != nil {
		return removed, fmt.Errorf("removing index entry: %w", err)
	}
	return removed, nil
}

// mustParseID parses a publication id argument or exits.
func mustParseID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		exitWithError(ExitError, "invalid publication id %q", arg)
	}
	return id
}
