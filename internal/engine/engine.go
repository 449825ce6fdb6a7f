// Package engine orchestrates the filing-to-entity extraction and
// resolution pipeline across a run's batch of documents.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/capstreet/s1prospector/internal/classify"
	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/enrich"
	"github.com/capstreet/s1prospector/internal/extract"
	"github.com/capstreet/s1prospector/internal/match"
	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/normalize"
	"github.com/capstreet/s1prospector/internal/service"
)

// Config holds configuration options for the pipeline engine.
type Config struct {
	DaysBack       int
	MatchThreshold int
	Concurrency    int
	SkipSeen       bool
	ShowProgress   bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DaysBack:       7,
		MatchThreshold: match.DefaultThreshold,
		Concurrency:    1,
		SkipSeen:       true,
		ShowProgress:   true,
	}
}

// Engine sequences extraction, normalization, classification, matching, and
// enrichment per document, and accumulates the deduplicated row set for the
// run. It holds no state beyond a single run.
type Engine struct {
	source     service.DocumentSource
	references service.ReferenceSource
	writer     service.ReportWriter
	store      service.RunStore
	enricher   *enrich.Enricher
	extractor  *extract.Extractor
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	logger     *slog.Logger
	config     Config
}

// New creates a pipeline engine. The store may be nil (no persistence) and
// the enricher's lookup may be nil (no roster joins).
func New(
	source service.DocumentSource,
	references service.ReferenceSource,
	lookup service.RosterLookup,
	writer service.ReportWriter,
	store service.RunStore,
	rules []classify.Rule,
	config Config,
) *Engine {
	logger := slog.Default()
	if len(rules) == 0 {
		rules = classify.DefaultRules()
	}
	return &Engine{
		source:     source,
		references: references,
		writer:     writer,
		store:      store,
		enricher:   enrich.New(lookup, logger),
		extractor:  extract.New(logger),
		normalizer: normalize.New(logger),
		classifier: classify.New(rules),
		logger:     logger,
		config:     config,
	}
}

// Run executes the full pipeline: snapshot load, document batch, dedup,
// output. Only a reference snapshot failure aborts the run; every
// per-document failure is isolated and counted.
func (e *Engine) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{StartedAt: time.Now()}

	snapshot, err := e.references.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSnapshotLoad, err)
	}
	resolver := match.NewResolver(snapshot, e.config.MatchThreshold, e.logger)
	e.logger.Info("loaded reference snapshot",
		"organizations", len(snapshot.Organizations),
		"persons", len(snapshot.Persons))

	filings, err := e.source.RecentFilings(ctx, e.config.DaysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to list filings: %w", err)
	}

	filings, err = e.filterSeen(ctx, filings)
	if err != nil {
		return nil, err
	}
	e.logger.Info("processing filings", "count", len(filings))

	perDocument := e.processBatch(ctx, filings, resolver, summary)

	// An interrupted run stops at the sink; partial rows never reach the
	// report.
	if err := ctx.Err(); err != nil {
		summary.CompletedAt = time.Now()
		return summary, fmt.Errorf("run canceled: %w", err)
	}

	records := e.deduplicate(perDocument, summary)
	summary.CompletedAt = time.Now()

	rows := make([]model.ReportRow, len(records))
	for i, rec := range records {
		rows[i] = model.RowFromRecord(rec)
	}

	if err := e.writer.Write(ctx, rows, summary); err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}

	if e.store != nil {
		if _, err := e.store.SaveRun(ctx, summary, records); err != nil {
			e.logger.Warn("failed to persist run", "error", err)
		}
	}

	e.logger.Info("run complete",
		"documents", summary.DocumentsAttempted,
		"records", len(records),
		"matched", summary.RecordsMatched,
		"duration", summary.Duration())
	return summary, nil
}

// filterSeen drops filings whose documents a previous run already processed.
func (e *Engine) filterSeen(ctx context.Context, filings []model.Filing) ([]model.Filing, error) {
	if e.store == nil || !e.config.SkipSeen {
		return filings, nil
	}
	seen, err := e.store.SeenDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load seen documents: %w", err)
	}
	kept := filings[:0]
	for _, f := range filings {
		if !seen[f.DocumentID] {
			kept = append(kept, f)
		}
	}
	if dropped := len(filings) - len(kept); dropped > 0 {
		e.logger.Info("skipping already processed documents", "count", dropped)
	}
	return kept, nil
}

// processBatch runs every filing through the per-document pipeline. Results
// land in filing-order slots so parallel workers never change dedup order.
func (e *Engine) processBatch(ctx context.Context, filings []model.Filing, resolver *match.Resolver, summary *model.RunSummary) [][]*model.StockholderRecord {
	results := make([][]*model.StockholderRecord, len(filings))

	var bar *progressbar.ProgressBar
	if e.config.ShowProgress && len(filings) > 0 {
		bar = progressbar.NewOptions(len(filings),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Parsing filings..."))
	}

	workers := e.config.Concurrency
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				docStats := e.processOne(ctx, filings[i], resolver, &results[i])
				mu.Lock()
				summary.DocumentsAttempted++
				summary.DocumentsNoTable += docStats.noTable
				summary.DocumentsFailed += docStats.failed
				summary.RowsRejected += docStats.rejected
				mu.Unlock()
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	for i := range filings {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

type documentStats struct {
	noTable  int
	failed   int
	rejected int
}

// processOne isolates a single document: any failure is logged with the
// document identifier and never aborts the run.
func (e *Engine) processOne(ctx context.Context, filing model.Filing, resolver *match.Resolver, out *[]*model.StockholderRecord) documentStats {
	var stats documentStats

	content, err := e.source.FetchDocument(ctx, filing)
	if err != nil {
		e.logger.Error("failed to fetch document",
			"document_id", filing.DocumentID,
			"company", filing.CompanyName,
			"error", err)
		stats.failed = 1
		return stats
	}

	records, rejected, err := e.ProcessDocument(ctx, filing, content, resolver)
	stats.rejected = rejected
	switch {
	case errors.Is(err, common.ErrNoTableFound):
		// Expected for some filings; counted, not an error.
		stats.noTable = 1
		return stats
	case err != nil:
		e.logger.Error("failed to process document",
			"document_id", filing.DocumentID,
			"company", filing.CompanyName,
			"error", err)
		stats.failed = 1
		return stats
	}

	*out = records
	return stats
}

// ProcessDocument runs the extraction, normalization, classification,
// matching, and enrichment stages for one document. It is pure with respect
// to its inputs and the read-only resolver, so documents can be processed in
// parallel safely.
func (e *Engine) ProcessDocument(ctx context.Context, filing model.Filing, content string, resolver *match.Resolver) ([]*model.StockholderRecord, int, error) {
	rawRows, err := e.extractor.Extract(filing.DocumentID, content)
	if err != nil {
		return nil, 0, err
	}

	var records []*model.StockholderRecord
	rejected := 0
	for _, raw := range rawRows {
		rec, ok := e.normalizer.Normalize(raw, filing)
		if !ok {
			rejected++
			continue
		}

		rec.EntityType = e.classifier.Classify(rec.RawName)
		if resolver != nil {
			result := resolver.Resolve(rec.NormalizedName, rec.RawName, rec.EntityType)
			rec.Match = &result
		}
		e.enricher.Enrich(ctx, rec)

		records = append(records, rec)
	}
	return records, rejected, nil
}

// deduplicate collapses identical (normalized_name, filing_company,
// filing_date) tuples across table fragments, first occurrence wins, and
// folds per-record stats into the summary.
func (e *Engine) deduplicate(perDocument [][]*model.StockholderRecord, summary *model.RunSummary) []*model.StockholderRecord {
	seen := make(map[string]bool)
	var records []*model.StockholderRecord

	for _, docRecords := range perDocument {
		for _, rec := range docRecords {
			summary.RecordsExtracted++
			key := rec.DedupKey()
			if seen[key] {
				summary.RecordsDeduped++
				continue
			}
			seen[key] = true
			records = append(records, rec)

			if rec.Match != nil && rec.Match.Matched {
				summary.RecordsMatched++
			}
			if rec.EntityType == model.EntityFoundation {
				summary.FoundationsFound++
			}
			if rec.ContactsProvenance == model.ContactsLookupUnavailable {
				summary.LookupsUnavailable++
			}
		}
	}
	return records
}
