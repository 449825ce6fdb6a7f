package report

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstreet/s1prospector/internal/model"
)

func TestCSVWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w := NewCSVWriter(path, nil)

	rows := []model.ReportRow{
		{
			InvestorName:     "Sequoia Capital Fund LP",
			IPOCompany:       "Acme Corp",
			FilingDate:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			OwnershipPercent: "12.5",
			Shares:           "1200000",
			EntityType:       "fund",
			InCRM:            true,
			CRMStatus:        "Active",
			SearchLink:       "https://www.linkedin.com/search/results/companies/?keywords=Sequoia",
		},
		{
			InvestorName: "Quiet Holder",
			IPOCompany:   "Acme Corp",
			FilingDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			EntityType:   "unknown",
		},
	}

	require.NoError(t, w.Write(context.Background(), rows, &model.RunSummary{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"investor_name", "ipo_company", "filing_date", "ownership_percent",
		"shares", "entity_type", "in_crm", "crm_status",
		"foundation_contacts", "search_link",
	}, records[0])
	assert.Equal(t, []string{
		"Sequoia Capital Fund LP", "Acme Corp", "2026-04-01", "12.5", "1200000",
		"fund", "true", "Active", "",
		"https://www.linkedin.com/search/results/companies/?keywords=Sequoia",
	}, records[1])

	// Absent values stay as empty cells, never dropped columns.
	assert.Equal(t, []string{
		"Quiet Holder", "Acme Corp", "2026-04-01", "", "",
		"unknown", "false", "", "", "",
	}, records[2])
}

func TestCSVWriter_EmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w := NewCSVWriter(path, nil)

	require.NoError(t, w.Write(context.Background(), nil, &model.RunSummary{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestCSVWriter_BadPath(t *testing.T) {
	w := NewCSVWriter(filepath.Join(t.TempDir(), "missing", "deep", "report.csv"), nil)
	assert.Error(t, w.Write(context.Background(), nil, &model.RunSummary{}))
}
