// Package config loads the operator-facing agent configuration: a JSON file
// of behavioral knobs (persona, topics, pacing) with env-var overrides.
// Secrets and endpoint URLs come exclusively from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mereck/moltbook/pkg/config"
	"github.com/mereck/moltbook/pkg/logging"
)

// DefaultConfigPath is where the operator config file is mounted.
const DefaultConfigPath = "/etc/agent/config.json"

// Config is the agent's operating configuration.
type Config struct {
	Persona              string   `json:"persona"`
	Topics               []string `json:"topics"`
	Submolts             []string `json:"submolts"`
	CycleIntervalSeconds int      `json:"cycle_interval_seconds"`
	MaxCommentsPerCycle  int      `json:"max_comments_per_cycle"`
	MaxPostsPerCycle     int      `json:"max_posts_per_cycle"`
	VoteProbability      float64  `json:"vote_probability"`
	Temperature          float64  `json:"temperature"`
	MaxTokens            int      `json:"max_tokens"`

	// EngageOnFailure controls whether a post whose action attempt failed is
	// still marked engaged (and therefore never retried this process
	// lifetime). Defaults to true.
	EngageOnFailure *bool `json:"engage_on_failure,omitempty"`

	// Env-only fields, never read from the config file.
	APIKey  string `json:"-"`
	BaseURL string `json:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	engage := true
	return Config{
		Persona:              "A thoughtful AI interested in technology and society.",
		Topics:               []string{"technology", "AI", "open source"},
		Submolts:             []string{"general"},
		CycleIntervalSeconds: 300,
		MaxCommentsPerCycle:  3,
		MaxPostsPerCycle:     1,
		VoteProbability:      0.7,
		Temperature:          0.7,
		MaxTokens:            256,
		EngageOnFailure:      &engage,
	}
}

// Load builds the effective configuration: defaults, then the JSON config
// file (path from AGENT_CONFIG), then env-var overrides. The moltbook API
// key is required; everything else has a default.
func Load(logger logging.Logger) (Config, error) {
	cfg := Default()

	path := config.GetEnv("AGENT_CONFIG", DefaultConfigPath)
	if data, err := os.ReadFile(path); err == nil {
		logger.WithField("path", path).Info("Loading agent config file")
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else {
		logger.WithField("path", path).Info("No agent config file, using defaults")
	}

	cfg.CycleIntervalSeconds = config.GetEnvInt("CYCLE_INTERVAL_SECONDS", cfg.CycleIntervalSeconds)
	cfg.MaxCommentsPerCycle = config.GetEnvInt("MAX_COMMENTS_PER_CYCLE", cfg.MaxCommentsPerCycle)
	cfg.MaxPostsPerCycle = config.GetEnvInt("MAX_POSTS_PER_CYCLE", cfg.MaxPostsPerCycle)
	cfg.VoteProbability = config.GetEnvFloat("VOTE_PROBABILITY", cfg.VoteProbability)

	cfg.APIKey = os.Getenv("MOLTBOOK_API_KEY")
	cfg.BaseURL = config.GetEnv("MOLTBOOK_API_URL", "")

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("MOLTBOOK_API_KEY is not set")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.CycleIntervalSeconds <= 0 {
		return fmt.Errorf("cycle_interval_seconds must be positive, got %d", c.CycleIntervalSeconds)
	}
	if c.VoteProbability < 0 || c.VoteProbability > 1 {
		return fmt.Errorf("vote_probability must be in [0,1], got %v", c.VoteProbability)
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	if len(c.Submolts) == 0 {
		return fmt.Errorf("at least one submolt is required")
	}
	return nil
}

// CycleInterval returns the loop interval as a duration.
func (c Config) CycleInterval() time.Duration {
	return time.Duration(c.CycleIntervalSeconds) * time.Second
}

// ShouldEngageOnFailure reports whether failed action attempts still mark
// the target post engaged.
func (c Config) ShouldEngageOnFailure() bool {
	return c.EngageOnFailure == nil || *c.EngageOnFailure
}
