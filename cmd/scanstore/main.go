// Command scanstore manages scan tags and builds count tables.
// Build with: go build -o bin/scanstore ./cmd/scanstore
package main

import (
	"fmt"
	"os"
)

func main() {
	cli := NewCLI(os.Stdout)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
