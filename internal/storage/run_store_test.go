package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstreet/s1prospector/internal/model"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSummary() *model.RunSummary {
	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	return &model.RunSummary{
		StartedAt:          started,
		CompletedAt:        started.Add(30 * time.Second),
		DocumentsAttempted: 5,
		DocumentsNoTable:   1,
		DocumentsFailed:    1,
		RecordsExtracted:   12,
		RecordsDeduped:     2,
		RecordsMatched:     4,
		FoundationsFound:   1,
	}
}

func testRecords() []*model.StockholderRecord {
	pct := decimal.RequireFromString("12.5")
	shares := int64(1200000)
	return []*model.StockholderRecord{
		{
			RawName:          "Sequoia Capital Fund LP",
			NormalizedName:   "sequoia capital fund",
			FilingCompany:    "Acme Corp",
			FilingDate:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			SourceDocumentID: "doc-1",
			OwnershipPercent: &pct,
			ShareCount:       &shares,
			EntityType:       model.EntityFund,
			Match: &model.MatchResult{
				Matched:     true,
				ReferenceID: "org-1",
				Confidence:  95,
			},
			ContactsProvenance: model.ContactsNotAttempted,
		},
		{
			RawName:            "Quiet Holder",
			NormalizedName:     "quiet holder",
			FilingCompany:      "Acme Corp",
			FilingDate:         time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			SourceDocumentID:   "doc-2",
			EntityType:         model.EntityUnknown,
			Match:              &model.MatchResult{Matched: false},
			ContactsProvenance: model.ContactsNotAttempted,
		},
	}
}

func TestSaveRunAndListRuns(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, testSummary(), testRecords())
	require.NoError(t, err)
	assert.Positive(t, runID)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 5, runs[0].Summary.DocumentsAttempted)
	assert.Equal(t, 1, runs[0].Summary.DocumentsNoTable)
	assert.Equal(t, 12, runs[0].Summary.RecordsExtracted)
	assert.Equal(t, 4, runs[0].Summary.RecordsMatched)
	assert.Equal(t, 30*time.Second, runs[0].Summary.Duration())
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := testSummary()
		s.StartedAt = s.StartedAt.Add(time.Duration(i) * time.Hour)
		s.DocumentsAttempted = i
		_, err := store.SaveRun(ctx, s, nil)
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Summary.DocumentsAttempted)
	assert.Equal(t, 1, runs[1].Summary.DocumentsAttempted)
}

func TestSeenDocuments(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	seen, err := store.SeenDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen)

	_, err = store.SaveRun(ctx, testSummary(), testRecords())
	require.NoError(t, err)

	seen, err = store.SeenDocuments(ctx)
	require.NoError(t, err)
	assert.True(t, seen["doc-1"])
	assert.True(t, seen["doc-2"])
	assert.False(t, seen["doc-3"])
}

func TestSaveRun_EmptyRecords(t *testing.T) {
	store := createTestStore(t)

	runID, err := store.SaveRun(context.Background(), testSummary(), nil)
	require.NoError(t, err)
	assert.Positive(t, runID)
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	// Running migrations again must be a no-op.
	require.NoError(t, store.Migrate(ctx))

	var version int
	err := store.db.QueryRowContext(ctx,
		"SELECT MAX(version) FROM schema_versions").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}
