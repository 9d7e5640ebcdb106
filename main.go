package main

import (
	"os"

	"github.com/Chative-multiagent/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
