// Package storage persists run summaries and extracted records in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the RunStore interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite run store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists a run summary with its deduplicated records and returns
// the run id. Records are append-only; past runs are never rewritten.
func (s *SQLiteStore) SaveRun(ctx context.Context, summary *model.RunSummary, records []*model.StockholderRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			started_at, completed_at, documents_attempted, documents_no_table,
			documents_failed, rows_rejected, records_extracted, records_deduped,
			records_matched, foundations_found, lookups_unavailable
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.StartedAt, summary.CompletedAt,
		summary.DocumentsAttempted, summary.DocumentsNoTable,
		summary.DocumentsFailed, summary.RowsRejected,
		summary.RecordsExtracted, summary.RecordsDeduped,
		summary.RecordsMatched, summary.FoundationsFound,
		summary.LookupsUnavailable)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (
			run_id, dedup_key, raw_name, normalized_name, filing_company,
			filing_date, source_document_id, ownership_pct, share_count,
			entity_type, matched, reference_id, confidence, contacts_provenance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		var pct *string
		if rec.OwnershipPercent != nil {
			s := rec.OwnershipPercent.String()
			pct = &s
		}
		matched := false
		var refID *string
		confidence := 0
		if rec.Match != nil {
			matched = rec.Match.Matched
			confidence = rec.Match.Confidence
			if rec.Match.Matched {
				refID = &rec.Match.ReferenceID
			}
		}

		if _, err := stmt.ExecContext(ctx,
			runID, rec.DedupKey(), rec.RawName, rec.NormalizedName,
			rec.FilingCompany, rec.FilingDate.Format("2006-01-02"),
			rec.SourceDocumentID, pct, rec.ShareCount,
			string(rec.EntityType), matched, refID, confidence,
			string(rec.ContactsProvenance)); err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", rec.RawName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]service.StoredRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, documents_attempted,
			documents_no_table, documents_failed, rows_rejected,
			records_extracted, records_deduped, records_matched,
			foundations_found, lookups_unavailable
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []service.StoredRun
	for rows.Next() {
		var r service.StoredRun
		var started, completed time.Time
		if err := rows.Scan(&r.ID, &started, &completed,
			&r.Summary.DocumentsAttempted, &r.Summary.DocumentsNoTable,
			&r.Summary.DocumentsFailed, &r.Summary.RowsRejected,
			&r.Summary.RecordsExtracted, &r.Summary.RecordsDeduped,
			&r.Summary.RecordsMatched, &r.Summary.FoundationsFound,
			&r.Summary.LookupsUnavailable); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = started
		r.Summary.StartedAt = started
		r.Summary.CompletedAt = completed
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SeenDocuments returns the set of document ids any past run has recorded.
func (s *SQLiteStore) SeenDocuments(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source_document_id FROM records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		seen[id] = true
	}
	return seen, rows.Err()
}
