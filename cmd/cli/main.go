// Package main is the entry point for the slab-pricing CLI.
package main

import (
	"os"

	"slab-pricing/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
