// Package main provides the entry point for the script pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "script_agent",
	Short: "Transcript-to-script pipeline",
	Long:  "script_agent rewrites source video transcripts into channel scripts and submits them as numbered audio jobs to the synthesis queue.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
