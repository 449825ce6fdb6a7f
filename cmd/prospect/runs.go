package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/capstreet/s1prospector/internal/cli"
	"github.com/capstreet/s1prospector/internal/config"
	"github.com/capstreet/s1prospector/internal/storage"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show past pipeline runs",
		RunE:  showRuns,
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of runs to show")

	return cmd
}

func showRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := storage.NewSQLiteStore(config.StoragePath())
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate run store: %w", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(cli.FormatWarning("no runs recorded yet"))
		return nil
	}

	fmt.Println(cli.FormatTitle("Past Runs"))
	fmt.Printf("%-6s %-20s %-10s %-10s %-10s %-8s\n",
		"ID", "Started", "Documents", "Extracted", "Deduped", "Matched")
	for _, run := range runs {
		fmt.Printf("%-6d %-20s %-10d %-10d %-10d %-8d\n",
			run.ID,
			run.StartedAt.Format(time.DateTime),
			run.Summary.DocumentsAttempted,
			run.Summary.RecordsExtracted,
			run.Summary.RecordsDeduped,
			run.Summary.RecordsMatched)
	}
	return nil
}
