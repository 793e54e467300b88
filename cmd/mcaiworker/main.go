// Package main is the entry point for the mcaiworker reference binary.
package main

import (
	"os"

	"github.com/mediajob/worker-sdk/cmd/mcaiworker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
