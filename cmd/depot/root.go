package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradekit/depot"
)

var (
	// Global flags.
	cacheDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "depot",
	Short: "Inspect and administer a persistent market-data cache",
	Long: `Depot is a CLI tool for inspecting and administering a persistent
market-data cache directory.

It operates on the same on-disk record format the depot library writes,
so entries cached by an application can be inspected, invalidated, and
pruned out of band.

Examples:
  # Show cache statistics
  depot stats

  # Look up a cached entry
  depot get "quote:AAPL"

  # Drop every quote entry
  depot invalidate --prefix "quote:"

  # Remove expired entries
  depot prune`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cacheDir, "cache-dir", "d", depot.DefaultCacheDir, "directory containing cached records")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// openCache opens the cache over the configured directory, loading its
// persisted records.
func openCache() (*depot.Cache, error) {
	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		logger = l
	}

	cache, err := depot.New(
		depot.WithCacheDir(cacheDir),
		depot.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("opening cache directory %q: %w", cacheDir, err)
	}
	return cache, nil
}
