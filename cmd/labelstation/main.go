package main

import (
	"os"

	"github.com/canline/labelstation/cmd/labelstation/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
