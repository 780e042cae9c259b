// Package main is the entry point for the tecanki CLI.
package main

import (
	"os"

	"github.com/jmylchreest/tecanki/cmd/tecanki/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
