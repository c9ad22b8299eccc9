package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired entries from the cache",
	RunE:  runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	removed, err := cache.Prune(context.Background())
	if err != nil {
		return err
	}

	if removed == 0 {
		fmt.Println("No expired entries.")
		return nil
	}
	fmt.Printf("Removed %d expired entries.\n", removed)
	return nil
}
