// Package main is the entry point for the voxlate CLI.
//
// Usage:
//
//	voxlate [flags] <command> [subcommand] [args]
//
// Commands:
//
//	profile    - Speaker profile management (train, status, reset, restore)
//	translate  - Text translation (single or batch)
//	speak      - Translation plus speech synthesis in the trained voice
//	languages  - List supported languages
//	status     - Device, model, profile and cache status
//	cache      - Translation result cache (stats, clear)
//	config     - Settings (show, set, path)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/voxlate/voxlate/cmd/voxlate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
