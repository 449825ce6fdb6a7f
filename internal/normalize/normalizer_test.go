package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstreet/s1prospector/internal/extract"
	"github.com/capstreet/s1prospector/internal/model"
)

func testFiling() model.Filing {
	return model.Filing{
		CompanyName: "Acme Corp",
		DocumentID:  "doc-1",
		FilingDate:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestNormalize_BasicRecord(t *testing.T) {
	n := New(nil)

	rec, ok := n.Normalize(extract.RawRow{
		Name:    "Sequoia Capital Fund, L.P.(1)",
		Percent: "12.5%",
		Shares:  "1,200,000",
	}, testFiling())
	require.True(t, ok)

	assert.Equal(t, "Sequoia Capital Fund, L.P.", rec.RawName)
	assert.Equal(t, "sequoia capital fund", rec.NormalizedName)
	assert.Equal(t, "Acme Corp", rec.FilingCompany)
	assert.Equal(t, "doc-1", rec.SourceDocumentID)

	require.NotNil(t, rec.OwnershipPercent)
	assert.True(t, rec.OwnershipPercent.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, rec.ShareCount)
	assert.Equal(t, int64(1200000), *rec.ShareCount)
}

func TestNormalize_RejectsEmptyName(t *testing.T) {
	n := New(nil)

	_, ok := n.Normalize(extract.RawRow{Name: "  ", Percent: "5%"}, testFiling())
	assert.False(t, ok)

	_, ok = n.Normalize(extract.RawRow{Name: "(1)(2)"}, testFiling())
	assert.False(t, ok)
}

func TestNormalize_KeepsRowWithoutHoldings(t *testing.T) {
	n := New(nil)

	rec, ok := n.Normalize(extract.RawRow{Name: "Quiet Holder LLC", Percent: "*", Shares: "—"}, testFiling())
	require.True(t, ok)
	assert.Nil(t, rec.OwnershipPercent)
	assert.Nil(t, rec.ShareCount)
	assert.False(t, rec.HasHoldings())
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and suffix", "Sequoia Capital Fund LP", "sequoia capital fund"},
		{"dotted suffix", "Benchmark Partners, L.L.C.", "benchmark partners"},
		{"suffix run", "Gamma Holdings Company LLC", "gamma holdings"},
		{"ampersand", "Smith & Jones Capital", "smith and jones capital"},
		{"footnote marker", "Atlas Trust(3)", "atlas"},
		{"comma removal", "Brown, Charles T.", "brown charles t."},
		{"suffix only name keeps last word", "Trust", "trust"},
		{"foundation suffix", "The Greenfield Foundation", "the greenfield"},
		{"whitespace collapse", "  Wide   Gap  Fund ", "wide gap fund"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		absent bool
	}{
		{name: "plain", in: "4.2%", want: "4.2"},
		{name: "no sign", in: "4.2", want: "4.2"},
		{name: "spaced", in: " 4.2 % ", want: "4.2"},
		{name: "integer", in: "15%", want: "15"},
		{name: "asterisk", in: "*", absent: true},
		{name: "em dash", in: "—", absent: true},
		{name: "hyphen", in: "-", absent: true},
		{name: "empty", in: "", absent: true},
		{name: "over range", in: "120%", absent: true},
		{name: "footnote only", in: "(2)", absent: true},
		{name: "trailing footnote", in: "3.3%(2)", want: "3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePercent(tt.in)
			if tt.absent {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseShareCount(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   int64
		absent bool
	}{
		{name: "separators", in: "1,234,567", want: 1234567},
		{name: "plain", in: "500", want: 500},
		{name: "footnote", in: "500(1)", want: 500},
		{name: "empty", in: "", absent: true},
		{name: "dash", in: "—", absent: true},
		{name: "textual", in: "see note 4", absent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseShareCount(tt.in)
			if tt.absent {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
