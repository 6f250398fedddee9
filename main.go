// Package main is the entry point for the KPI threshold engine.
package main

import (
	"os"

	"kpialarm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
