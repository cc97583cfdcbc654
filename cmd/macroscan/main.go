// Package main provides the macroscan CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/macroscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
