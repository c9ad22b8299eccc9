package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradekit/depot"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate [KEY]",
	Short: "Remove cached entries",
	Long: `Remove a single entry by KEY, or a group of entries by prefix,
glob pattern, or tag.

Exactly one of KEY, --prefix, --glob, or --tag must be given.

Examples:
  depot invalidate "quote:AAPL"
  depot invalidate --prefix "quote:"
  depot invalidate --glob "*:AAPL"
  depot invalidate --tag AAPL`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvalidate,
}

var (
	invalidatePrefix string
	invalidateGlob   string
	invalidateTag    string
)

func init() {
	invalidateCmd.Flags().StringVar(&invalidatePrefix, "prefix", "", "remove entries whose key starts with this prefix")
	invalidateCmd.Flags().StringVar(&invalidateGlob, "glob", "", "remove entries whose key matches this glob pattern")
	invalidateCmd.Flags().StringVar(&invalidateTag, "tag", "", "remove entries carrying this tag")
	rootCmd.AddCommand(invalidateCmd)
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	var selectors int
	if len(args) == 1 {
		selectors++
	}
	for _, flag := range []string{invalidatePrefix, invalidateGlob, invalidateTag} {
		if flag != "" {
			selectors++
		}
	}
	if selectors != 1 {
		return fmt.Errorf("exactly one of KEY, --prefix, --glob, or --tag must be given")
	}

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx := context.Background()
	switch {
	case len(args) == 1:
		existed, err := cache.Invalidate(ctx, args[0])
		if err != nil {
			return err
		}
		if !existed {
			fmt.Printf("Key %q was not cached.\n", args[0])
			return nil
		}
		fmt.Printf("Removed %q.\n", args[0])
	case invalidatePrefix != "":
		removed, err := cache.InvalidatePattern(ctx, depot.Prefix(invalidatePrefix))
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries with prefix %q.\n", removed, invalidatePrefix)
	case invalidateGlob != "":
		removed, err := cache.InvalidatePattern(ctx, depot.Glob(invalidateGlob))
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries matching %q.\n", removed, invalidateGlob)
	case invalidateTag != "":
		removed, err := cache.InvalidateByTag(ctx, invalidateTag)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries tagged %q.\n", removed, invalidateTag)
	}
	return nil
}
