package main

import (
	"os"

	"github.com/art-vbst/art-admin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
