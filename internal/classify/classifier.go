// Package classify assigns entity types to investor names using an ordered
// precedence table of lexical token sets.
package classify

import (
	"regexp"
	"strings"

	"github.com/capstreet/s1prospector/internal/model"
)

// Rule pairs an entity type with the tokens that signal it. Rules are
// evaluated in declaration order and the first hit wins, so a specific
// category is never shadowed by a generic token later in the table.
type Rule struct {
	Type   model.EntityType
	Tokens []string
}

// DefaultRules returns the default precedence table, most specific first.
// The token sets are tunable configuration; the ordering is policy and
// stays fixed so classification is deterministic per input string.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:   model.EntityFoundation,
			Tokens: []string{"foundation", "charitable trust", "endowment"},
		},
		{
			Type:   model.EntityFamilyOffice,
			Tokens: []string{"family office", "family holdings", "family trust", "family lp"},
		},
		{
			Type:   model.EntityFund,
			Tokens: []string{"fund", "capital", "partners", "ventures", "management", "advisors"},
		},
		{
			Type:   model.EntityCorporate,
			Tokens: []string{"inc", "corp", "corporation", "llc", "ltd", "limited", "company"},
		},
		{
			Type:   model.EntityTrust,
			Tokens: []string{"trust", "estate"},
		},
	}
}

// Classifier evaluates names against a fixed rule table. Token patterns are
// compiled once at construction, word-boundary anchored so "fund" never
// matches inside an unrelated word.
type Classifier struct {
	compiled map[string]*regexp.Regexp
	rules    []Rule
}

// New creates a classifier from an ordered rule table.
func New(rules []Rule) *Classifier {
	c := &Classifier{
		rules:    rules,
		compiled: make(map[string]*regexp.Regexp),
	}
	for _, rule := range rules {
		for _, token := range rule.Tokens {
			if _, ok := c.compiled[token]; ok {
				continue
			}
			pattern := `(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(token), ` `, `\s+`) + `\b`
			c.compiled[token] = regexp.MustCompile(pattern)
		}
	}
	return c
}

// Classify resolves a raw name (legal suffixes retained) to exactly one
// entity type. Unknown is a valid terminal outcome, not an error.
func (c *Classifier) Classify(rawName string) model.EntityType {
	for _, rule := range c.rules {
		for _, token := range rule.Tokens {
			if c.compiled[token].MatchString(rawName) {
				return rule.Type
			}
		}
	}

	if looksLikePersonalName(rawName) {
		return model.EntityIndividual
	}
	return model.EntityUnknown
}

var nameToken = regexp.MustCompile(`^[A-Za-z][A-Za-z.'\-]*$`)

// looksLikePersonalName reports whether a name has the two-or-three-token
// shape of a personal name. Organizational tokens were already ruled out by
// the precedence table before this runs.
func looksLikePersonalName(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		if !nameToken.MatchString(w) {
			return false
		}
	}
	return true
}
