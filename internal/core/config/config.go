// Package config handles configuration loading and validation for docket.
package config

import (
	"fmt"
	"os"

	"github.com/hay-kot/docket/internal/core/match"
	"gopkg.in/yaml.v3"
)

// Default party roles for the two-role conversation model.
const (
	DefaultRequester = "rm"
	DefaultReceiver  = "client"
)

// Config holds the application configuration.
type Config struct {
	Parties PartiesConfig `yaml:"parties"`
	Matcher MatcherConfig `yaml:"matcher"`
	DataDir string        `yaml:"-"` // set by caller, not from config file
}

// PartiesConfig names the two conversation roles. The sender role is
// inverted to derive task ownership.
type PartiesConfig struct {
	Requester string `yaml:"requester"`
	Receiver  string `yaml:"receiver"`
}

// MatcherConfig holds the reconciliation decision thresholds.
type MatcherConfig struct {
	// HighConfidence is the minimum fuzzy score that updates an
	// existing action instead of creating a new one.
	HighConfidence float64 `yaml:"high_confidence"`
	// Tentative is the minimum fuzzy score that creates a tentative
	// action for human review rather than a fresh open one.
	Tentative float64 `yaml:"tentative"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Parties: PartiesConfig{
			Requester: DefaultRequester,
			Receiver:  DefaultReceiver,
		},
		Matcher: MatcherConfig{
			HighConfidence: match.DefaultHighConfidence,
			Tentative:      match.DefaultTentative,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Parties.Requester == "" {
		c.Parties.Requester = defaults.Parties.Requester
	}
	if c.Parties.Receiver == "" {
		c.Parties.Receiver = defaults.Parties.Receiver
	}
	if c.Matcher.HighConfidence == 0 {
		c.Matcher.HighConfidence = defaults.Matcher.HighConfidence
	}
	if c.Matcher.Tentative == 0 {
		c.Matcher.Tentative = defaults.Matcher.Tentative
	}
}
