package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Look up a cached entry",
	Long: `Print the cached value for KEY to stdout.

The command fails if the key is absent or its entry has expired.

Examples:
  depot get "quote:AAPL"
  depot get "news:AAPL" --timing`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var showTiming bool

func init() {
	getCmd.Flags().BoolVar(&showTiming, "timing", false, "show lookup timing on stderr")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	start := time.Now()
	value, ok := cache.Get(context.Background(), key)
	elapsed := time.Since(start)

	if !ok {
		return fmt.Errorf("key %q not found", key)
	}

	os.Stdout.Write(value)
	fmt.Println()
	if showTiming {
		fmt.Fprintf(os.Stderr, "Time: %s\n", elapsed)
	}
	return nil
}
