package main

import (
	"errors"
	"fmt"
	"os"

	"typeahead/internal/cli"
	"typeahead/internal/logger"
)

func main() {
	err := cli.Execute()
	logger.Sync()

	if errors.Is(err, cli.ErrCancelled) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
