// Package main is the entry point for the metacat CLI binary.
package main

import (
	"os"

	"metacat/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
