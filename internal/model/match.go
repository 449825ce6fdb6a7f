package model

// MatchBasis identifies which reference index supplied a hit.
type MatchBasis string

const (
	// BasisOrganization means the organization index produced the match.
	BasisOrganization MatchBasis = "organization"
	// BasisPerson means the person index produced the match.
	BasisPerson MatchBasis = "person"
)

// MatchResult is the outcome of resolving one record against the reference
// list. Matched implies Confidence is at or above the configured threshold
// and ReferenceID is set; unmatched results carry neither.
type MatchResult struct {
	ReferenceID     string
	ReferenceName   string
	ReferenceStatus string
	Basis           MatchBasis
	Confidence      int
	Matched         bool
}
