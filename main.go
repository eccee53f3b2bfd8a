package main

import (
	"os"

	"github.com/heatctl/heatctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
