// Package main provides the entry point for the Deep Prospecting Engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prospect_agent",
	Short: "Deep Prospecting Engine",
	Long:  "Deep Prospecting Engine researches a client, scouts competitor AI adoption and generates ranked, citation-backed sales plays with supporting assets.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
