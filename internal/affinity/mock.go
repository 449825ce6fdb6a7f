package affinity

import (
	"context"

	"github.com/capstreet/s1prospector/internal/model"
)

// MockSource is a mock ReferenceSource for testing.
type MockSource struct {
	Err       error
	Entries   []model.ReferenceEntry
	LoadCalls int
}

// LoadSnapshot implements the ReferenceSource interface.
func (m *MockSource) LoadSnapshot(_ context.Context) (*model.ReferenceIndex, error) {
	m.LoadCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return model.NewReferenceIndex(m.Entries), nil
}
