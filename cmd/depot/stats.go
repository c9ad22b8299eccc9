package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the cache directory",
	Long: `Display statistics about the cache directory including:
- Entry counts (total, valid, expired)
- Configured capacity
- Total size on disk`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	s := cache.Stats()

	if s.Entries == 0 {
		fmt.Println("Cache is empty.")
		fmt.Printf("Cache directory: %s\n", cacheDir)
		return nil
	}

	fmt.Printf("Cache directory: %s\n", s.Dir)
	fmt.Printf("Entries:         %d\n", s.Entries)
	fmt.Printf("Valid:           %d\n", s.Valid)
	fmt.Printf("Expired:         %d\n", s.Expired)
	fmt.Printf("Capacity:        %d\n", s.Capacity)
	fmt.Printf("Disk size:       %s\n", formatBytes(dirSize(s.Dir)))

	return nil
}

// dirSize returns the total size of regular files directly under dir.
func dirSize(dir string) int64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
