package model

import "time"

// RunSummary accumulates run-level statistics across a batch of documents.
type RunSummary struct {
	StartedAt          time.Time
	CompletedAt        time.Time
	DocumentsAttempted int
	DocumentsNoTable   int
	DocumentsFailed    int
	RowsRejected       int
	RecordsExtracted   int
	RecordsDeduped     int
	RecordsMatched     int
	FoundationsFound   int
	LookupsUnavailable int
}

// Duration returns the elapsed wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
