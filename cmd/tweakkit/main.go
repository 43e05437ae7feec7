package main

import (
	"os"

	"github.com/evan-idocoding/tweakkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
