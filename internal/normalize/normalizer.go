// Package normalize turns raw extracted rows into canonical stockholder records.
package normalize

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/capstreet/s1prospector/internal/extract"
	"github.com/capstreet/s1prospector/internal/model"
)

var (
	footnoteMarker = regexp.MustCompile(`\(\d+\)\s*$`)
	anyFootnote    = regexp.MustCompile(`\(\d+\)`)
	percentValue   = regexp.MustCompile(`(\d+\.?\d*)`)
	nonNumeric     = regexp.MustCompile(`[^\d]`)
)

// Legal suffixes stripped from the normalized name only, compared with
// punctuation removed ("l.p." and "lp" are the same token). The raw name
// keeps them: the suffix is a classification signal and must not be lost.
var legalSuffixes = map[string]bool{
	"llc": true, "lp": true, "llp": true,
	"inc": true, "incorporated": true,
	"corp": true, "corporation": true,
	"ltd": true, "limited": true,
	"company": true, "trust": true, "foundation": true,
	"nv": true, "sa": true,
}

// Normalizer converts raw rows into StockholderRecords.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize builds a record from a raw row, or reports rejection when the
// name is empty after trimming. Field coercion failures degrade the field to
// nil; they never reject the row.
func (n *Normalizer) Normalize(raw extract.RawRow, filing model.Filing) (*model.StockholderRecord, bool) {
	name := cleanRawName(raw.Name)
	if name == "" {
		return nil, false
	}

	rec := &model.StockholderRecord{
		RawName:          name,
		NormalizedName:   NormalizeName(name),
		FilingCompany:    filing.CompanyName,
		FilingDate:       filing.FilingDate,
		SourceDocumentID: filing.DocumentID,
	}

	if pct, ok := parsePercent(raw.Percent); ok {
		rec.OwnershipPercent = &pct
	}
	if shares, ok := parseShareCount(raw.Shares); ok {
		rec.ShareCount = &shares
	}

	if !rec.HasHoldings() {
		n.logger.Debug("record carries no holdings figures, keeping on name signal",
			"name", rec.RawName,
			"document_id", rec.SourceDocumentID)
	}

	return rec, true
}

// cleanRawName strips trailing footnote markers and collapses whitespace
// while keeping legal suffixes intact.
func cleanRawName(s string) string {
	s = anyFootnote.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName canonicalizes a name for matching: lowercase, footnotes and
// punctuation removed, legal suffixes stripped, whitespace collapsed.
func NormalizeName(name string) string {
	s := strings.ToLower(cleanRawName(name))
	s = strings.NewReplacer(",", " ", "&", " and ").Replace(s)
	words := strings.Fields(s)

	// Strip a run of legal-suffix tokens off the tail.
	for len(words) > 1 && isLegalSuffix(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isLegalSuffix(word string) bool {
	return legalSuffixes[strings.ReplaceAll(word, ".", "")]
}

// parsePercent coerces a percentage cell ("4.2%", "4.2", " 4.2 % ") into a
// decimal in [0,100]. Out-of-range or unparseable values coerce to absent.
func parsePercent(s string) (decimal.Decimal, bool) {
	s = footnoteMarker.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" || s == "*" || s == "—" || s == "-" {
		return decimal.Decimal{}, false
	}

	m := percentValue.FindString(strings.ReplaceAll(s, "%", ""))
	if m == "" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseShareCount strips thousands separators and coerces the remainder to a
// non-negative integer, or absent.
func parseShareCount(s string) (int64, bool) {
	s = footnoteMarker.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || nonNumeric.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FilingFrom builds filing metadata for a local document parse where only a
// company name is known.
func FilingFrom(documentID, company string, date time.Time) model.Filing {
	return model.Filing{
		DocumentID:  documentID,
		CompanyName: company,
		FilingDate:  date,
	}
}
