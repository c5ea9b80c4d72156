package main

import (
	"os"

	"github.com/adspot-dev/adspot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
