package main

import (
	"os"

	"github.com/penwyp/go-energy-report/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
