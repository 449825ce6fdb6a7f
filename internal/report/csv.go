// Package report implements the tabular-file output sink.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/capstreet/s1prospector/internal/model"
)

// Column order shared with the Sheets writer; the output contract does not
// vary by destination.
var columnHeaders = []string{
	"investor_name",
	"ipo_company",
	"filing_date",
	"ownership_percent",
	"shares",
	"entity_type",
	"in_crm",
	"crm_status",
	"foundation_contacts",
	"search_link",
}

// CSVWriter implements the ReportWriter interface for a local CSV file.
type CSVWriter struct {
	logger *slog.Logger
	path   string
}

// NewCSVWriter creates a CSV report writer targeting the given path.
func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{path: path, logger: logger}
}

// Write implements the ReportWriter interface. Absent values are written as
// empty strings, never omitted columns.
func (w *CSVWriter) Write(_ context.Context, rows []model.ReportRow, _ *model.RunSummary) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)
	if err := cw.Write(columnHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.InvestorName,
			row.IPOCompany,
			row.FilingDate.Format("2006-01-02"),
			row.OwnershipPercent,
			row.Shares,
			row.EntityType,
			strconv.FormatBool(row.InCRM),
			row.CRMStatus,
			row.FoundationContacts,
			row.SearchLink,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}

	w.logger.Info("wrote CSV report", "path", w.path, "rows", len(rows))
	return nil
}
