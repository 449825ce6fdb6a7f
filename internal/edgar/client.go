// Package edgar implements the document source against the SEC EDGAR
// full-text feed and archive.
package edgar

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/service"
)

const (
	recentFeedURL = "https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent&type=S-1&company=&dateb=&owner=include&count=100&output=atom"
	archiveHost   = "https://www.sec.gov"

	// SEC permits at most 10 requests per second; stay under it.
	requestsPerSecond = 5
	maxDocumentBytes  = 20 << 20
)

// Client fetches S-1 filings from EDGAR. SEC requires a User-Agent header
// carrying contact information on every request.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	userAgent  string
	feedURL    string
}

// NewClient creates an EDGAR client. The userAgent must identify the caller
// with contact info per SEC fair-access rules.
func NewClient(userAgent string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, fmt.Errorf("%w: EDGAR user agent with contact info is required", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger,
		userAgent:  userAgent,
		feedURL:    recentFeedURL,
	}, nil
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	Updated string `xml:"updated"`
	Link    struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// Feed titles look like "S-1 - Company Name (0001234567) (Filer)".
var titlePattern = regexp.MustCompile(`^(S-1(?:/A)?) - (.+?) \((\d+)\)`)

// RecentFilings lists S-1 and S-1/A filings from the recent-filings feed
// that fall within the lookback window.
func (c *Client) RecentFilings(ctx context.Context, daysBack int) ([]model.Filing, error) {
	if daysBack <= 0 {
		daysBack = 7
	}
	cutoff := time.Now().AddDate(0, 0, -daysBack)

	body, err := c.get(ctx, c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch EDGAR feed: %w", err)
	}

	// The feed declares ISO-8859-1, which encoding/xml refuses without a
	// charset reader.
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = charset.NewReaderLabel

	var feed atomFeed
	if err := decoder.Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to parse EDGAR feed: %w", err)
	}

	var filings []model.Filing
	for _, entry := range feed.Entries {
		m := titlePattern.FindStringSubmatch(entry.Title)
		if m == nil {
			continue
		}

		filingDate, err := time.Parse(time.RFC3339, entry.Updated)
		if err != nil {
			filingDate = time.Now()
		}
		if filingDate.Before(cutoff) {
			continue
		}

		filings = append(filings, model.Filing{
			FormType:    m[1],
			CompanyName: strings.TrimSpace(m[2]),
			CIK:         m[3],
			FilingDate:  filingDate,
			DocumentID:  entry.Link.Href,
			DocumentURL: entry.Link.Href,
		})
	}

	c.logger.Info("found filings in window", "count", len(filings), "days_back", daysBack)
	return filings, nil
}

// FetchDocument resolves the filing's index page to its primary document
// and downloads the document HTML.
func (c *Client) FetchDocument(ctx context.Context, filing model.Filing) (string, error) {
	indexBody, err := c.get(ctx, filing.DocumentURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch filing index for %s: %w", filing.CompanyName, err)
	}

	docURL := findDocumentLink(string(indexBody))
	if docURL == "" {
		return "", fmt.Errorf("no document link on filing index for %s: %w", filing.CompanyName, common.ErrNotFound)
	}
	if strings.HasPrefix(docURL, "/") {
		docURL = archiveHost + docURL
	}

	c.logger.Debug("fetching filing document", "company", filing.CompanyName, "url", docURL)
	docBody, err := c.get(ctx, docURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document for %s: %w", filing.CompanyName, err)
	}
	return string(docBody), nil
}

// findDocumentLink scans the index page anchors for the primary filing
// document, preferring links that name the form type.
func findDocumentLink(indexHTML string) string {
	root, err := html.Parse(strings.NewReader(indexHTML))
	if err != nil {
		return ""
	}

	var fallback string
	var best string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if best != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			var href string
			for _, a := range n.Attr {
				if a.Key == "href" {
					href = a.Val
				}
			}
			if strings.Contains(href, "/Archives/edgar/data/") && strings.HasSuffix(href, ".htm") {
				text := strings.ToLower(nodeText(n))
				if strings.Contains(text, "s-1") || strings.Contains(strings.ToLower(href), "s-1") {
					best = href
				} else if fallback == "" {
					fallback = href
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if best != "" {
		return best
	}
	return fallback
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// get performs a rate-limited GET with retries.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		// Accept-Encoding is left to the transport so it transparently
		// decompresses gzip responses.
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			return common.ErrRateLimit
		}
		if resp.StatusCode != http.StatusOK {
			return &common.RetryableError{
				Err:       fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url),
				Retryable: resp.StatusCode >= 500,
			}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		return err
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})

	return body, err
}
