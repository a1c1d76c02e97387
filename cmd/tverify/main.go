package main

import (
	"os"

	"github.com/gnoverse/tverify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
