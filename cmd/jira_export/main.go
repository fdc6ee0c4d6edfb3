// Package main implements the jira_export CLI, which exports tracker issues,
// their projects and attachments to Markdown files for static site generators.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jira_export",
	Short: "Export JIRA issues to Markdown",
	Long: `jira_export pages through a JIRA search and writes one Markdown document per issue,
one per referenced project and, optionally, downloads every attachment. Output is laid
out for a Jekyll site by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
