package main

import (
	"os"

	"github.com/jat-tools/jat/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
