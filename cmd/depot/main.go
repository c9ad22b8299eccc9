// Package main provides the depot CLI tool for inspecting and
// administering a persistent market-data cache directory.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
