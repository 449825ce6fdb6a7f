package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/capstreet/s1prospector/internal/classify"
	"github.com/capstreet/s1prospector/internal/config"
	"github.com/capstreet/s1prospector/internal/extract"
	"github.com/capstreet/s1prospector/internal/normalize"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.htm>",
		Short: "Extract stockholders from a local filing document",
		Long: `Parse a saved S-1 document, run extraction, normalization, and
classification, and print the records as CSV on stdout. No network
calls are made; matching and enrichment are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("company", "", "Filing company name to attach to the records")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	path := config.ExpandPath(args[0])
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	company, _ := cmd.Flags().GetString("company")
	if company == "" {
		company = filepath.Base(path)
	}
	filing := normalize.FilingFrom(path, company, time.Now())

	logger := slog.Default()
	rows, err := extract.New(logger).Extract(filing.DocumentID, string(content))
	if err != nil {
		return err
	}

	normalizer := normalize.New(logger)
	classifier := classify.New(config.LoadClassifierRules())

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"investor_name", "normalized_name", "entity_type", "ownership_percent", "shares"}); err != nil {
		return err
	}

	rejected := 0
	for _, row := range rows {
		record, ok := normalizer.Normalize(row, filing)
		if !ok {
			rejected++
			continue
		}
		record.EntityType = classifier.Classify(record.RawName)

		pct := ""
		if record.OwnershipPercent != nil {
			pct = record.OwnershipPercent.String()
		}
		shares := ""
		if record.ShareCount != nil {
			shares = strconv.FormatInt(*record.ShareCount, 10)
		}
		if err := w.Write([]string{record.RawName, record.NormalizedName, string(record.EntityType), pct, shares}); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if rejected > 0 {
		fmt.Fprintf(os.Stderr, "%d rows rejected\n", rejected)
	}
	return nil
}
