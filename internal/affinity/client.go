// Package affinity loads the CRM reference list snapshot used for matching.
package affinity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/service"
)

const defaultBaseURL = "https://api.affinity.co"

// Entity type discriminators used by the list-entries endpoint.
const (
	entityTypeOrganization = 0
	entityTypePerson       = 1
)

// Client reads a named list from the Affinity CRM and materializes it as a
// reference snapshot. The snapshot is taken once per run; matching never
// goes back to the API.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	listName   string
	pageSize   int
}

// NewClient creates an Affinity client for the given list.
func NewClient(apiKey, listName string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: affinity api key", common.ErrMissingConfig)
	}
	if listName == "" {
		listName = "Fundraising"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		listName:   listName,
		pageSize:   500,
	}, nil
}

type listInfo struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type listEntriesPage struct {
	NextPageToken string      `json:"next_page_token"`
	ListEntries   []listEntry `json:"list_entries"`
}

type listEntry struct {
	Entity     json.RawMessage `json:"entity"`
	ID         int             `json:"id"`
	EntityType int             `json:"entity_type"`
	EntityID   int             `json:"entity_id"`
}

type orgEntity struct {
	Name string `json:"name"`
}

type personEntity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type fieldValuesPage struct {
	FieldValues []fieldValue `json:"field_values"`
}

type fieldValue struct {
	Value any `json:"value"`
	Field struct {
		Name string `json:"name"`
	} `json:"field"`
}

// LoadSnapshot reads the configured list and returns the reference index.
// A failure here invalidates the whole batch, so errors are returned rather
// than degraded.
func (c *Client) LoadSnapshot(ctx context.Context) (*model.ReferenceIndex, error) {
	listID, err := c.findList(ctx)
	if err != nil {
		return nil, err
	}

	var entries []model.ReferenceEntry
	pageToken := ""
	for {
		page, err := c.fetchEntries(ctx, listID, pageToken)
		if err != nil {
			return nil, err
		}

		for _, le := range page.ListEntries {
			entry, ok := c.toReferenceEntry(ctx, listID, le)
			if ok {
				entries = append(entries, entry)
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.Info("loaded reference list",
		"list", c.listName,
		"entries", len(entries))
	return model.NewReferenceIndex(entries), nil
}

func (c *Client) findList(ctx context.Context) (int, error) {
	var lists []listInfo
	if err := c.get(ctx, "/lists", nil, &lists); err != nil {
		return 0, fmt.Errorf("failed to fetch lists: %w", err)
	}
	for _, l := range lists {
		if strings.EqualFold(l.Name, c.listName) {
			return l.ID, nil
		}
	}
	return 0, fmt.Errorf("list %q: %w", c.listName, common.ErrNotFound)
}

func (c *Client) fetchEntries(ctx context.Context, listID int, pageToken string) (*listEntriesPage, error) {
	params := url.Values{"page_size": {strconv.Itoa(c.pageSize)}}
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}
	var page listEntriesPage
	if err := c.get(ctx, fmt.Sprintf("/lists/%d/list-entries", listID), params, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch list entries: %w", err)
	}
	return &page, nil
}

// toReferenceEntry maps one list entry to a reference entry. The pipeline
// stage field is best effort: a field-value fetch failure leaves the status
// empty rather than dropping the entry.
func (c *Client) toReferenceEntry(ctx context.Context, listID int, le listEntry) (model.ReferenceEntry, bool) {
	entry := model.ReferenceEntry{ID: strconv.Itoa(le.EntityID)}

	switch le.EntityType {
	case entityTypeOrganization:
		var org orgEntity
		if err := json.Unmarshal(le.Entity, &org); err != nil || org.Name == "" {
			return entry, false
		}
		entry.Kind = model.KindOrganization
		entry.Name = org.Name
	case entityTypePerson:
		var p personEntity
		if err := json.Unmarshal(le.Entity, &p); err != nil {
			return entry, false
		}
		entry.Kind = model.KindPerson
		entry.Name = strings.TrimSpace(p.FirstName + " " + p.LastName)
		if entry.Name == "" {
			return entry, false
		}
	default:
		return entry, false
	}

	entry.Status = c.entryStatus(ctx, listID, le.ID)
	return entry, true
}

func (c *Client) entryStatus(ctx context.Context, listID, entryID int) string {
	var page fieldValuesPage
	path := fmt.Sprintf("/lists/%d/list-entries/%d/field-values", listID, entryID)
	if err := c.get(ctx, path, nil, &page); err != nil {
		c.logger.Debug("failed to fetch field values", "entry_id", entryID, "error", err)
		return ""
	}
	for _, fv := range page.FieldValues {
		name := strings.ToLower(fv.Field.Name)
		if strings.Contains(name, "status") || strings.Contains(name, "stage") {
			if s, ok := fv.Value.(string); ok {
				return s
			}
			return fmt.Sprintf("%v", fv.Value)
		}
	}
	return ""
}

// get performs an authenticated GET with retries. Affinity uses basic auth
// with an empty username and the API key as password.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	return common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		req.SetBasicAuth("", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			return common.ErrRateLimit
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &common.RetryableError{
				Err:       fmt.Errorf("affinity API returned %d: %s", resp.StatusCode, string(body)),
				Retryable: resp.StatusCode >= 500,
			}
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})
}
