// Package main is the entry point for the audioengine CLI.
//
// Usage:
//
//	audioengine [flags] <command> [args]
//
// Commands:
//
//	run       - Start a session from a YAML config and block until stopped
//	validate  - Check a YAML config against the schema without starting it
//	journal   - Inspect a session's durable lifecycle journal
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/oakmix/audioengine/cmd/audioengine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
