package affinity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", "Fundraising", nil)
	require.NoError(t, err)
	client.baseURL = server.URL
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "Fundraising", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))
}

func TestLoadSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lists", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "name": "fundraising"}, {"id": 9, "name": "Other"}]`)
	})
	mux.HandleFunc("/lists/7/list-entries", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_token") == "" {
			fmt.Fprint(w, `{
				"list_entries": [
					{"id": 1, "entity_id": 100, "entity_type": 0, "entity": {"name": "Sequoia Capital"}},
					{"id": 2, "entity_id": 200, "entity_type": 1, "entity": {"first_name": "John", "last_name": "Smith"}}
				],
				"next_page_token": "page2"
			}`)
			return
		}
		fmt.Fprint(w, `{
			"list_entries": [
				{"id": 3, "entity_id": 300, "entity_type": 0, "entity": {"name": "Benchmark Partners"}},
				{"id": 4, "entity_id": 400, "entity_type": 0, "entity": {"name": ""}}
			]
		}`)
	})
	mux.HandleFunc("/lists/7/list-entries/1/field-values", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"field_values": [{"field": {"name": "Pipeline Status"}, "value": "Active"}]}`)
	})
	mux.HandleFunc("/lists/7/list-entries/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"field_values": []}`)
	})

	client := newTestClient(t, mux)
	idx, err := client.LoadSnapshot(context.Background())
	require.NoError(t, err)

	// The nameless entity on page two is dropped.
	require.Len(t, idx.Organizations, 2)
	require.Len(t, idx.Persons, 1)

	assert.Equal(t, "100", idx.Organizations[0].ID)
	assert.Equal(t, "Sequoia Capital", idx.Organizations[0].Name)
	assert.Equal(t, "Active", idx.Organizations[0].Status)
	assert.Equal(t, model.KindOrganization, idx.Organizations[0].Kind)

	assert.Equal(t, "John Smith", idx.Persons[0].Name)
	assert.Equal(t, model.KindPerson, idx.Persons[0].Kind)
}

func TestLoadSnapshot_ListNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lists", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id": 9, "name": "Other"}]`)
	})

	client := newTestClient(t, mux)
	_, err := client.LoadSnapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestLoadSnapshot_StatusFetchFailureIsBestEffort(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lists", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "name": "Fundraising"}]`)
	})
	mux.HandleFunc("/lists/7/list-entries", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"list_entries": [{"id": 1, "entity_id": 100, "entity_type": 0, "entity": {"name": "Sequoia Capital"}}]}`)
	})
	mux.HandleFunc("/lists/7/list-entries/1/field-values", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	client := newTestClient(t, mux)
	idx, err := client.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, idx.Organizations, 1)
	assert.Empty(t, idx.Organizations[0].Status)
}

func TestLoadSnapshot_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lists", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	client := newTestClient(t, mux)
	_, err := client.LoadSnapshot(context.Background())
	require.Error(t, err)
}

func TestMockSource(t *testing.T) {
	src := &MockSource{Entries: []model.ReferenceEntry{
		{ID: "1", Name: "Org", Kind: model.KindOrganization},
	}}

	idx, err := src.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Size())
	assert.Equal(t, 1, src.LoadCalls)
}
