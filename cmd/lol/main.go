// Package main is the lol command entry point.
package main

import (
	"os"

	"github.com/notname9390/lol/pkg/cli"
)

// Version is stamped by the release build via -ldflags.
var Version = "0.1.0"

func main() {
	os.Exit(cli.Execute(Version))
}
