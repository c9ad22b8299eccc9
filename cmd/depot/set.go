package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store an entry in the cache",
	Long: `Store VALUE under KEY with an optional TTL and tags.

Examples:
  depot set "quote:AAPL" '{"price":187.5}' --ttl 5m --tag quote --tag AAPL
  depot set "profile:AAPL" '{"name":"Apple Inc."}' --ttl 168h`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var (
	setTTL  time.Duration
	setTags []string
)

func init() {
	setCmd.Flags().DurationVar(&setTTL, "ttl", 0, "time to live (0 uses the default)")
	setCmd.Flags().StringArrayVar(&setTags, "tag", nil, "tag for group invalidation (repeatable)")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Set(context.Background(), key, []byte(value), setTTL, setTags...); err != nil {
		return fmt.Errorf("storing %q: %w", key, err)
	}

	fmt.Printf("Stored %q (%d bytes)\n", key, len(value))
	return nil
}
