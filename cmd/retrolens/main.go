package main

import (
	"os"

	"github.com/retrolens/retrolens/cmd/retrolens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
