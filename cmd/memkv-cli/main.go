package main

import (
	"fmt"
	"os"

	"github.com/yndnr/memkv-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
		os.Exit(1)
	}
}
