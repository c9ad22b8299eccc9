package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from the cache",
	RunE:  runClear,
}

var clearYes bool

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	entries := cache.Stats().Entries
	if entries == 0 {
		fmt.Println("Cache is already empty.")
		return nil
	}

	if !clearYes {
		fmt.Printf("Remove all %d entries from %s? [y/N] ", entries, cacheDir)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := cache.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Removed %d entries.\n", entries)
	return nil
}
