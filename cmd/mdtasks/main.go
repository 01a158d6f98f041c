package main

import (
	"fmt"
	"os"

	"mdtasks/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mdtasks: %v\n", err)
		os.Exit(1)
	}
}
