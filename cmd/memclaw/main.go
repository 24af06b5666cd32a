// Package main is the entry point for the memclaw CLI.
package main

import (
	"os"

	"github.com/memclaw/memclaw/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
