// Package main is the entry point for vmlaunch.
package main

import (
	"os"

	"github.com/javanstorm/vmlaunch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
