// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockholderRecord represents one investor row extracted from a filing.
// The extraction fields are set once by the extractor and normalizer; the
// EntityType, Match, and FoundationContacts fields are appended by the
// downstream pipeline stages and are never rewritten after that.
type StockholderRecord struct {
	FilingDate         time.Time
	OwnershipPercent   *decimal.Decimal
	ShareCount         *int64
	Match              *MatchResult
	RawName            string
	NormalizedName     string
	FilingCompany      string
	SourceDocumentID   string
	EntityType         EntityType
	ContactsProvenance ContactsProvenance
	FoundationContacts []FoundationContact
}

// DedupKey creates a stable hash for duplicate detection across redundant
// table fragments within a run.
func (r *StockholderRecord) DedupKey() string {
	data := fmt.Sprintf("%s:%s:%s",
		strings.ToLower(r.NormalizedName),
		strings.ToLower(r.FilingCompany),
		r.FilingDate.Format("2006-01-02"))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// HasHoldings reports whether the record carries at least one parsed
// ownership figure. Records without any are kept but logged as low
// confidence rather than silently dropped.
func (r *StockholderRecord) HasHoldings() bool {
	return r.OwnershipPercent != nil || r.ShareCount != nil
}

// ContactsProvenance records how the foundation contact list was obtained.
type ContactsProvenance string

const (
	// ContactsNotAttempted means the record was not foundation-classified.
	ContactsNotAttempted ContactsProvenance = "NOT_ATTEMPTED"
	// ContactsFound means the roster lookup returned at least one officer.
	ContactsFound ContactsProvenance = "FOUND"
	// ContactsNoneFound means the lookup succeeded but returned no officers.
	ContactsNoneFound ContactsProvenance = "NONE_FOUND"
	// ContactsLookupUnavailable means the lookup failed or timed out this run.
	ContactsLookupUnavailable ContactsProvenance = "LOOKUP_UNAVAILABLE"
)

// FoundationContact is one officer or director attached to a
// foundation-classified record.
type FoundationContact struct {
	Name string
	Role string
}

// Filing describes one document supplied by the document source.
type Filing struct {
	FilingDate  time.Time
	DocumentID  string
	CompanyName string
	CIK         string
	FormType    string
	DocumentURL string
}
