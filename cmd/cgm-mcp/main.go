package main

import (
	"fmt"
	"os"

	"cgm-mcp/cmd/cgm-mcp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
