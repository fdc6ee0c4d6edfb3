package main

import (
	"errors"
	"os"

	"github.com/jonathan/jira-export/internal/db"
	"github.com/jonathan/jira-export/internal/observability"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent export runs from the run ledger",
	RunE:  runListRuns,
}

var (
	runsDatabaseURL string
	runsLimit       int
)

func init() {
	runsCmd.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to list")

	rootCmd.AddCommand(runsCmd)
}

func runListRuns(cmd *cobra.Command, _ []string) error {
	dbURL := runsDatabaseURL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return errors.New("--db-url or DATABASE_URL is required")
	}

	ctx := cmd.Context()
	ledger, err := db.Connect(ctx, dbURL)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRuns(runs)
	return nil
}
