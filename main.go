// Package main is the entry point for the vigil detection engine CLI.
package main

import (
	"fmt"
	"os"

	"vigil/cmd"
	_ "vigil/detections" // register the compiled-in detection catalog
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
