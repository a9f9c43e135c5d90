// Package main provides the entry point for the resume tailoring pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_pipeline",
	Short: "Resume tailoring pipeline",
	Long:  "Tailors a resume to a specific job posting by crawling the company site, summarizing it, classifying the industry, and regenerating the resume content with an LLM.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
