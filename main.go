package main

import (
	"os"

	"tasnim.dev/accessctl/cmd"
	awsclient "tasnim.dev/accessctl/internal/aws"
)

func main() {
	rootCmd := cmd.NewAccessCmd(awsclient.NewServiceClient)

	// Failures are reported by the command itself.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
