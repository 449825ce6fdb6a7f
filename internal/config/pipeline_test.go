package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/model"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetDefaults()
	t.Cleanup(viper.Reset)
}

func TestLoadEngineConfig_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := LoadEngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.DaysBack)
	assert.Equal(t, 80, cfg.MatchThreshold)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.True(t, cfg.SkipSeen)
}

func TestLoadEngineConfig_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"threshold too high", "match.threshold", 101},
		{"threshold negative", "match.threshold", -1},
		{"days back zero", "run.days_back", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set(tt.key, tt.value)

			_, err := LoadEngineConfig()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidConfig))
		})
	}
}

func TestLoadClassifierRules_TokenOverride(t *testing.T) {
	resetViper(t)
	viper.Set("classify.tokens.fund", []string{"sovereign wealth", "pension"})

	rules := LoadClassifierRules()

	var fundTokens []string
	for _, rule := range rules {
		if rule.Type == model.EntityFund {
			fundTokens = rule.Tokens
		}
	}
	assert.Equal(t, []string{"sovereign wealth", "pension"}, fundTokens)

	// Precedence ordering stays fixed regardless of overrides.
	assert.Equal(t, model.EntityFoundation, rules[0].Type)
	assert.Equal(t, model.EntityFamilyOffice, rules[1].Type)
}

func TestOutputMethod(t *testing.T) {
	resetViper(t)
	method, err := OutputMethod()
	require.NoError(t, err)
	assert.Equal(t, "csv", method)

	viper.Set("run.output", "sheets")
	method, err = OutputMethod()
	require.NoError(t, err)
	assert.Equal(t, "sheets", method)

	viper.Set("run.output", "parquet")
	_, err = OutputMethod()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data", "p.db"), ExpandPath("~/data/p.db"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/tmp/p.db", ExpandPath("/tmp/p.db"))
	assert.Empty(t, ExpandPath(""))

	t.Setenv("PROSPECT_TEST_DIR", "/var/data")
	assert.Equal(t, "/var/data/p.db", ExpandPath("$PROSPECT_TEST_DIR/p.db"))
}

func TestStoragePath_Expanded(t *testing.T) {
	resetViper(t)

	path := StoragePath()
	assert.NotContains(t, path, "~")
	assert.Contains(t, path, "prospect.db")
}
