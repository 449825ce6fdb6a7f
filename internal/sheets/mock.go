package sheets

import (
	"context"
	"sync"

	"github.com/capstreet/s1prospector/internal/model"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, rows []model.ReportRow, summary *model.RunSummary) error
	LastSummary    *model.RunSummary
	LastRows       []model.ReportRow
	WriteCallCount int
	mu             sync.Mutex
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, rows []model.ReportRow, summary *model.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastRows = rows
	m.LastSummary = summary

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, rows, summary)
	}
	return nil
}
