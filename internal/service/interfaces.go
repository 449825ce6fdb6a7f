// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/capstreet/s1prospector/internal/model"
)

// DocumentSource supplies raw filing documents plus filing metadata. The
// pipeline core never fetches anything itself; this boundary owns network
// access, pagination, and rate-limit compliance.
type DocumentSource interface {
	// RecentFilings lists filings within the lookback window.
	RecentFilings(ctx context.Context, daysBack int) ([]model.Filing, error)
	// FetchDocument returns the raw HTML of a filing's primary document.
	FetchDocument(ctx context.Context, filing model.Filing) (string, error)
}

// ReferenceSource supplies the read-only reference list snapshot at run start.
type ReferenceSource interface {
	LoadSnapshot(ctx context.Context) (*model.ReferenceIndex, error)
}

// RosterLookup resolves a foundation name to its officer roster. An empty
// slice with a nil error means the lookup succeeded and found nobody;
// a common.ErrLookupUnavailable error means the dependency was down this run.
type RosterLookup interface {
	LookupOfficers(ctx context.Context, foundationName string) ([]model.FoundationContact, error)
}

// ReportWriter delivers the final row set to an output sink.
type ReportWriter interface {
	Write(ctx context.Context, rows []model.ReportRow, summary *model.RunSummary) error
}

// RunStore persists run summaries and extracted records so repeated runs can
// skip documents already processed.
type RunStore interface {
	SaveRun(ctx context.Context, summary *model.RunSummary, records []*model.StockholderRecord) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]StoredRun, error)
	SeenDocuments(ctx context.Context) (map[string]bool, error)
	Migrate(ctx context.Context) error
	Close() error
}

// StoredRun is a persisted run summary with its storage identity.
type StoredRun struct {
	StartedAt time.Time
	ID        int64
	Summary   model.RunSummary
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
