// Package propublica implements the foundation roster lookup against the
// ProPublica Nonprofit Explorer API.
package propublica

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/model"
)

const defaultBaseURL = "https://projects.propublica.org/nonprofits/api/v2"

// Client looks up foundation officers by name. Responses are cached for the
// life of the client so repeated foundations across filings cost one call.
type Client struct {
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a ProPublica client.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      gocache.New(time.Hour, 10*time.Minute),
		logger:     logger,
		baseURL:    defaultBaseURL,
	}
}

type searchResponse struct {
	Organizations []searchOrg `json:"organizations"`
}

type searchOrg struct {
	Name string `json:"name"`
	EIN  int    `json:"ein"`
}

type orgResponse struct {
	Organization orgDetails `json:"organization"`
}

type orgDetails struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	State      string `json:"state"`
	CareOfName string `json:"careofname"`
}

// LookupOfficers resolves a foundation name to its officer contacts. An
// empty result with nil error means the lookup ran and found nobody; a
// common.ErrLookupUnavailable error means the dependency failed this run.
func (c *Client) LookupOfficers(ctx context.Context, foundationName string) ([]model.FoundationContact, error) {
	key := strings.ToLower(strings.TrimSpace(foundationName))
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]model.FoundationContact), nil
	}

	org, err := c.search(ctx, foundationName)
	if err != nil {
		return nil, err
	}
	if org == nil {
		c.logger.Debug("no nonprofit match", "foundation", foundationName)
		c.cache.Set(key, []model.FoundationContact(nil), gocache.DefaultExpiration)
		return nil, nil
	}

	details, err := c.organization(ctx, org.EIN)
	if err != nil {
		return nil, err
	}

	contacts := contactsFrom(details)
	c.cache.Set(key, contacts, gocache.DefaultExpiration)
	return contacts, nil
}

// search queries the nonprofit index with the legal-suffix noise trimmed
// from the name, which improves recall on the full-text search.
func (c *Client) search(ctx context.Context, name string) (*searchOrg, error) {
	query := strings.TrimSpace(strings.NewReplacer(
		"Foundation", "", "Endowment", "").Replace(name))
	if query == "" {
		query = name
	}

	endpoint := fmt.Sprintf("%s/search.json?%s", c.baseURL,
		url.Values{"q": {query}}.Encode())

	var result searchResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if len(result.Organizations) == 0 {
		return nil, nil
	}
	// The search ranks by relevance; the first hit is the best candidate.
	return &result.Organizations[0], nil
}

func (c *Client) organization(ctx context.Context, ein int) (*orgDetails, error) {
	endpoint := fmt.Sprintf("%s/organizations/%s.json", c.baseURL, strconv.Itoa(ein))

	var result orgResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result.Organization, nil
}

// contactsFrom extracts what officer signal the filing data exposes. The
// API does not publish full officer rosters, so a care-of contact or the
// registered organization itself is the best available lead.
func contactsFrom(details *orgDetails) []model.FoundationContact {
	if details == nil || details.Name == "" {
		return nil
	}

	if careOf := strings.TrimSpace(strings.TrimPrefix(details.CareOfName, "%")); careOf != "" {
		return []model.FoundationContact{{Name: careOf, Role: "Contact"}}
	}

	role := "Foundation"
	if details.City != "" && details.State != "" {
		role = fmt.Sprintf("Foundation, %s, %s", details.City, details.State)
	}
	return []model.FoundationContact{{Name: details.Name, Role: role}}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLookupUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLookupUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", common.ErrLookupUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrLookupUnavailable, err)
	}
	return nil
}
