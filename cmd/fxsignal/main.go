package main

import (
	"os"

	"github.com/wonny/fxsignal/cmd/fxsignal/commands"
)

// main is the entry point for the fxsignal CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
