// Command happyml is the command-line entry point for the HappyML
// dataset/task DSL: creating datasets, training tasks, and running
// predictions from scripts or an interactive REPL.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
