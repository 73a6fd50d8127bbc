package main

import (
	"os"

	"github.com/eras-labs/consilium/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
