package main

import (
	"os"

	"github.com/leefowlercu/statusmirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
