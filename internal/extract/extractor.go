// Package extract parses stockholder tables out of raw filing documents.
package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/capstreet/s1prospector/internal/common"
)

// RawRow is one pre-normalization stockholder row. Cell values are carried
// exactly as they appear in the document; footnote markers, percent signs,
// and thousands separators are the normalizer's problem.
type RawRow struct {
	Name    string
	Percent string
	Shares  string
}

// Section header patterns that introduce a stockholder table.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)principal\s+(and\s+selling\s+)?stockholders`),
	regexp.MustCompile(`(?i)security\s+ownership`),
	regexp.MustCompile(`(?i)beneficial\s+owner`),
	regexp.MustCompile(`(?i)selling\s+stockholders`),
	regexp.MustCompile(`(?i)principal\s+shareholders`),
}

// Column header synonyms. Header cells are matched against these sets so
// name-first and percent-first layouts resolve to the same columns.
var (
	nameHeaders    = []string{"name", "beneficial owner", "stockholder", "shareholder", "holder"}
	percentHeaders = []string{"percent", "percentage", "%"}
	sharesHeaders  = []string{"shares", "number of shares", "amount"}
)

// columnMap records which cell index holds each field in a table fragment.
// -1 means the column was not identified.
type columnMap struct {
	name    int
	shares  int
	percent int
}

// Extractor parses one filing document at a time. Each call to Extract is a
// single pass over the document; it holds no state across documents.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses the document and returns its stockholder rows in table
// order. A document with no recognizable stockholder-table header returns
// common.ErrNoTableFound; a document with no parseable structure at all
// returns common.ErrMalformedDocument. Rows with unparseable holdings cells
// are still returned: partial extraction beats total failure.
func (e *Extractor) Extract(documentID, content string) ([]RawRow, error) {
	if strings.TrimSpace(content) == "" {
		e.logger.Warn("document has no content", "document_id", documentID)
		return nil, fmt.Errorf("document %s: %w", documentID, common.ErrMalformedDocument)
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		e.logger.Warn("document failed to parse", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("document %s: %w: %v", documentID, common.ErrMalformedDocument, err)
	}

	tables := collectTables(root)
	if len(tables) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, common.ErrNoTableFound)
	}

	var rows []RawRow
	// Carried across fragments so a table split by a page break can reuse
	// the column layout established by the fragment that had the header.
	var carry *columnMap

	for _, t := range tables {
		if !isStockholderTable(t) {
			continue
		}

		trs := collectRows(t.node)
		headerIdx, cols := findHeader(trs)
		if cols == nil {
			if carry == nil {
				continue
			}
			// Header-less continuation fragment.
			cols = carry
			headerIdx = -1
		}
		carry = cols

		for i := headerIdx + 1; i < len(trs); i++ {
			if row, ok := parseDataRow(trs[i], cols); ok {
				rows = append(rows, row)
			}
		}
	}

	if carry == nil {
		return nil, fmt.Errorf("document %s: %w", documentID, common.ErrNoTableFound)
	}

	e.logger.Debug("extracted stockholder rows",
		"document_id", documentID,
		"rows", len(rows))
	return rows, nil
}

// tableNode pairs a table element with the text that precedes it, since the
// section header usually sits outside the table itself.
type tableNode struct {
	node      *html.Node
	preceding string
}

func collectTables(root *html.Node) []tableNode {
	var tables []tableNode
	var lastText strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, tableNode{node: n, preceding: lastText.String()})
			lastText.Reset()
			return
		}
		if n.Type == html.TextNode {
			lastText.WriteString(n.Data)
			lastText.WriteString(" ")
			// Only the text nearest to the table matters; cap the carry.
			if lastText.Len() > 2000 {
				s := lastText.String()
				lastText.Reset()
				lastText.WriteString(s[len(s)-1000:])
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return tables
}

func isStockholderTable(t tableNode) bool {
	tableText := strings.ToLower(nodeText(t.node))
	preceding := strings.ToLower(t.preceding)

	for _, re := range sectionPatterns {
		if re.MatchString(tableText) || re.MatchString(preceding) {
			return true
		}
	}
	// Column headers alone can identify the table when no section title is
	// close enough.
	if strings.Contains(tableText, "beneficial") &&
		(strings.Contains(tableText, "shares") || strings.Contains(tableText, "percent")) {
		return true
	}
	return false
}

func collectRows(table *html.Node) []*html.Node {
	var trs []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			trs = append(trs, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return trs
}

func collectCells(tr *html.Node) []string {
	var cells []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, strings.TrimSpace(nodeText(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(tr)
	return cells
}

// findHeader locates the header row and resolves the column layout from its
// cell labels. Returns (-1, nil) when no recognizable header exists.
func findHeader(trs []*html.Node) (int, *columnMap) {
	for idx, tr := range trs {
		cells := collectCells(tr)
		if len(cells) < 2 {
			continue
		}

		cols := &columnMap{name: -1, shares: -1, percent: -1}
		for i, cell := range cells {
			label := strings.ToLower(cell)
			if label == "" {
				continue
			}
			switch {
			case cols.name == -1 && matchesAny(label, nameHeaders):
				cols.name = i
			case cols.percent == -1 && matchesAny(label, percentHeaders):
				cols.percent = i
			case cols.shares == -1 && matchesAny(label, sharesHeaders):
				cols.shares = i
			}
		}

		if cols.name >= 0 && (cols.shares >= 0 || cols.percent >= 0) {
			return idx, cols
		}
	}
	return -1, nil
}

func matchesAny(label string, synonyms []string) bool {
	for _, s := range synonyms {
		if strings.Contains(label, s) {
			return true
		}
	}
	return false
}

var (
	percentCell = regexp.MustCompile(`\d+\.?\d*\s*%`)
	numericCell = regexp.MustCompile(`^[\d,]+$`)
)

// parseDataRow extracts one raw row, skipping header echoes, totals, and
// footnote lines. Holdings cells outside the mapped columns are recovered by
// shape when the mapped cell is empty, since merged cells shift indices.
func parseDataRow(tr *html.Node, cols *columnMap) (RawRow, bool) {
	cells := collectCells(tr)
	if len(cells) < 2 {
		return RawRow{}, false
	}

	nameIdx := cols.name
	if nameIdx >= len(cells) {
		nameIdx = 0
	}
	name := strings.TrimSpace(cells[nameIdx])
	if len(name) < 3 {
		return RawRow{}, false
	}
	lower := strings.ToLower(name)
	for _, skip := range []string{"name", "total", "(", "_", "*"} {
		if strings.HasPrefix(lower, skip) {
			return RawRow{}, false
		}
	}
	if strings.Contains(lower, "directors and officers") {
		return RawRow{}, false
	}

	row := RawRow{Name: name}
	if cols.percent >= 0 && cols.percent < len(cells) {
		row.Percent = cells[cols.percent]
	}
	if cols.shares >= 0 && cols.shares < len(cells) {
		row.Shares = cells[cols.shares]
	}

	// Merged cells shift columns; fall back to scanning by shape.
	for i, cell := range cells {
		if i == nameIdx || cell == "" {
			continue
		}
		if row.Percent == "" && percentCell.MatchString(cell) {
			row.Percent = cell
			continue
		}
		if row.Shares == "" && numericCell.MatchString(strings.ReplaceAll(cell, " ", "")) {
			row.Shares = cell
		}
	}

	return row, true
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
