// Command ecsctl is a small operator-facing driver around the ecs runtime:
// it constructs a world, registers a fixed demo system set, ticks it, and
// prints a final snapshot.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
