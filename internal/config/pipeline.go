package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/capstreet/s1prospector/internal/classify"
	"github.com/capstreet/s1prospector/internal/common"
	"github.com/capstreet/s1prospector/internal/engine"
)

// SetDefaults registers default values for all pipeline configuration keys.
func SetDefaults() {
	defaults := engine.DefaultConfig()
	viper.SetDefault("run.days_back", defaults.DaysBack)
	viper.SetDefault("run.concurrency", defaults.Concurrency)
	viper.SetDefault("run.skip_seen", defaults.SkipSeen)
	viper.SetDefault("run.output", "csv")
	viper.SetDefault("match.threshold", defaults.MatchThreshold)
	viper.SetDefault("affinity.list_name", "Fundraising")
	viper.SetDefault("storage.path", "~/.local/share/prospect/prospect.db")
}

// LoadEngineConfig builds the engine configuration from Viper.
func LoadEngineConfig() (engine.Config, error) {
	cfg := engine.Config{
		DaysBack:       viper.GetInt("run.days_back"),
		MatchThreshold: viper.GetInt("match.threshold"),
		Concurrency:    viper.GetInt("run.concurrency"),
		SkipSeen:       viper.GetBool("run.skip_seen"),
		ShowProgress:   true,
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 100 {
		return cfg, fmt.Errorf("%w: match threshold must be in [0,100]", common.ErrInvalidConfig)
	}
	if cfg.DaysBack <= 0 {
		return cfg, fmt.Errorf("%w: days back must be positive", common.ErrInvalidConfig)
	}
	return cfg, nil
}

// LoadClassifierRules builds the classifier precedence table. The token
// sets are tunable per entity type under classify.tokens.*; the precedence
// ordering itself is fixed policy and not configurable.
func LoadClassifierRules() []classify.Rule {
	rules := classify.DefaultRules()
	for i, rule := range rules {
		key := "classify.tokens." + string(rule.Type)
		if viper.IsSet(key) {
			if tokens := viper.GetStringSlice(key); len(tokens) > 0 {
				rules[i].Tokens = tokens
			}
		}
	}
	return rules
}

// StoragePath returns the expanded SQLite database path.
func StoragePath() string {
	return ExpandPath(viper.GetString("storage.path"))
}

// OutputMethod returns the configured sink, validated.
func OutputMethod() (string, error) {
	method := viper.GetString("run.output")
	switch method {
	case "csv", "sheets":
		return method, nil
	}
	return "", fmt.Errorf("%w: unknown output method %q", common.ErrInvalidConfig, method)
}
