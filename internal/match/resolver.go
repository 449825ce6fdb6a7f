// Package match resolves extracted investor names against the reference
// list snapshot with fuzzy scoring and deterministic tie-breaking.
package match

import (
	"log/slog"

	"github.com/agnivade/levenshtein"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/normalize"
)

// DefaultThreshold is the minimum accepted confidence score. The bias is
// precision over recall: a false positive pollutes a CRM-facing report more
// visibly than a false negative a reviewer can still catch by raw name.
const DefaultThreshold = 80

type candidate struct {
	entry      model.ReferenceEntry
	normalized string
}

// Resolver scores names against a read-only reference snapshot. Candidate
// names are canonicalized once at construction with the same normalization
// applied to extracted records, so legal-suffix noise cancels out.
type Resolver struct {
	logger    *slog.Logger
	orgs      []candidate
	persons   []candidate
	threshold int
}

// NewResolver builds a resolver over the snapshot.
func NewResolver(index *model.ReferenceIndex, threshold int, logger *slog.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		threshold: threshold,
		logger:    logger,
	}
	for _, e := range index.Organizations {
		r.orgs = append(r.orgs, candidate{entry: e, normalized: normalize.NormalizeName(e.Name)})
	}
	for _, e := range index.Persons {
		r.persons = append(r.persons, candidate{entry: e, normalized: normalize.NormalizeName(e.Name)})
	}
	return r
}

// Resolve matches one record name against the snapshot. The classifier's
// entity type routes which index is tried first; because classification is
// itself imperfect, the other index is used as a fallback when the first
// yields nothing above threshold.
func (r *Resolver) Resolve(normalizedName, rawName string, entityType model.EntityType) model.MatchResult {
	first, second := r.orgs, r.persons
	firstBasis, secondBasis := model.BasisOrganization, model.BasisPerson
	if !entityType.IsOrganization() {
		first, second = r.persons, r.orgs
		firstBasis, secondBasis = model.BasisPerson, model.BasisOrganization
	}

	if best, score := bestCandidate(normalizedName, rawName, first); score >= r.threshold {
		return r.accepted(best, score, firstBasis, rawName)
	}
	if best, score := bestCandidate(normalizedName, rawName, second); score >= r.threshold {
		return r.accepted(best, score, secondBasis, rawName)
	}
	return model.MatchResult{Matched: false}
}

func (r *Resolver) accepted(best candidate, score int, basis model.MatchBasis, rawName string) model.MatchResult {
	r.logger.Debug("matched investor against reference list",
		"investor", rawName,
		"reference", best.entry.Name,
		"score", score)
	return model.MatchResult{
		Matched:         true,
		ReferenceID:     best.entry.ID,
		ReferenceName:   best.entry.Name,
		ReferenceStatus: best.entry.Status,
		Basis:           basis,
		Confidence:      score,
	}
}

// bestCandidate scans every candidate and keeps the highest score. Ties
// resolve to the shorter edit distance on the unnormalized strings, then to
// the lexicographically first reference id, so repeated runs always pick
// the same candidate.
func bestCandidate(normalizedName, rawName string, candidates []candidate) (candidate, int) {
	var best candidate
	bestScore := -1
	bestDistance := 0

	for _, c := range candidates {
		s := Score(normalizedName, c.normalized)
		switch {
		case s > bestScore:
			best, bestScore = c, s
			bestDistance = levenshtein.ComputeDistance(rawName, c.entry.Name)
		case s == bestScore:
			d := levenshtein.ComputeDistance(rawName, c.entry.Name)
			if d < bestDistance || (d == bestDistance && c.entry.ID < best.entry.ID) {
				best, bestDistance = c, d
			}
		}
	}
	return best, bestScore
}

// Score computes a 0-100 similarity between two canonicalized names, taking
// the best of plain ratio, partial ratio, and token-set ratio so word-order
// variants and partial containments both score well.
func Score(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	score := fuzzy.Ratio(a, b)
	if partial := fuzzy.PartialRatio(a, b); partial > score {
		score = partial
	}
	if tokenSet := fuzzy.TokenSetRatio(a, b); tokenSet > score {
		score = tokenSet
	}
	return score
}
