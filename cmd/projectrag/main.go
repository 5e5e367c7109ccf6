package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/projectrag/internal/config"
	"github.com/kailas-cloud/projectrag/internal/version"
)

// env selects config/<env>.yaml.
var env string

var rootCmd = &cobra.Command{
	Use:   "projectrag",
	Short: "Question answering over the project tracker",
	Long: `projectrag answers natural-language questions about projects, tasks and
users by retrieving the most similar tracker records and grounding a language
model on them.

Examples:
  # Run the HTTP API
  projectrag serve

  # Ask a single question from the terminal
  projectrag ask "Which projects are delayed?" --sources`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Config environment: local, prod (defaults to $ENV or local)")
}

func main() {
	// A missing .env is fine; real deployments set the variables directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func resolveEnv() string {
	if env != "" {
		return env
	}
	return config.GetEnv()
}
