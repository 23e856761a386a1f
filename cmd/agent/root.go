// Package main implements the nodeagent CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nodeagent",
	Short: "Broker-connected module-dispatch agent",
	Long:  "Connects to a central broker, receives action requests, dispatches them to pluggable modules, and returns structured results.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
