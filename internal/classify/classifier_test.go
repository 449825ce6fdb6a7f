package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capstreet/s1prospector/internal/model"
)

func TestClassify_DefaultRules(t *testing.T) {
	c := New(DefaultRules())

	tests := []struct {
		name string
		in   string
		want model.EntityType
	}{
		{"foundation", "The Greenfield Foundation", model.EntityFoundation},
		{"charitable trust", "Oak Charitable Trust", model.EntityFoundation},
		{"endowment", "State University Endowment", model.EntityFoundation},
		{"family office", "Walton Family Office LLC", model.EntityFamilyOffice},
		{"family trust", "Harrison Family Trust", model.EntityFamilyOffice},
		{"fund", "Growth Fund III", model.EntityFund},
		{"capital", "Sequoia Capital", model.EntityFund},
		{"partners", "Benchmark Partners", model.EntityFund},
		{"ventures", "Andreessen Ventures", model.EntityFund},
		{"corporate llc", "Widget Holdings LLC", model.EntityCorporate},
		{"corporate inc", "Globex Inc.", model.EntityCorporate},
		{"corporate dotted", "Initech Corp.", model.EntityCorporate},
		{"trust", "Baker Irrevocable Trust", model.EntityTrust},
		{"estate", "Estate of Howard Hughes", model.EntityTrust},
		{"individual two tokens", "John Smith", model.EntityIndividual},
		{"individual three tokens", "John A. Smith", model.EntityIndividual},
		{"individual with apostrophe", "Conor O'Brien", model.EntityIndividual},
		{"unknown long", "The Quick Brown Fox Consortium", model.EntityUnknown},
		{"unknown single token", "Cher", model.EntityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.in))
		})
	}
}

func TestClassify_PrecedenceOrder(t *testing.T) {
	c := New(DefaultRules())

	// Every more-specific category beats the generic tokens it also carries.
	assert.Equal(t, model.EntityFoundation, c.Classify("Hewlett Foundation Fund LLC"))
	assert.Equal(t, model.EntityFamilyOffice, c.Classify("Smith Family Office Capital Partners LLC"))
	assert.Equal(t, model.EntityFund, c.Classify("Tiger Capital Management Inc."))
	assert.Equal(t, model.EntityCorporate, c.Classify("Acme Company Trust"))
}

func TestClassify_WordBoundaries(t *testing.T) {
	c := New(DefaultRules())

	// Tokens inside larger words must not match.
	assert.Equal(t, model.EntityIndividual, c.Classify("Maria Fundberg"))
	assert.Equal(t, model.EntityIndividual, c.Classify("Lena Trustman"))
	// Multi-word tokens tolerate flexible whitespace.
	assert.Equal(t, model.EntityFamilyOffice, c.Classify("Bergen  Family   Office"))
}

func TestClassify_CustomRules(t *testing.T) {
	c := New([]Rule{
		{Type: model.EntityFund, Tokens: []string{"sovereign wealth"}},
	})

	assert.Equal(t, model.EntityFund, c.Classify("Norway Sovereign Wealth Vehicle"))
	assert.Equal(t, model.EntityUnknown, c.Classify("Some Large Organization Name Here"))
}

func TestLooksLikePersonalName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"John Smith", true},
		{"John A. Smith", true},
		{"Anne-Marie Dubois", true},
		{"John", false},
		{"John Smith and Jane Smith", false},
		{"Smith 2020", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikePersonalName(tt.in))
		})
	}
}
