// Package config centralizes runtime tuning for the assistant. Defaults are
// safe for local development; every knob can be overridden through
// TASKVOICE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces the environment variables (TASKVOICE_SESSION_TTL, ...).
const envPrefix = "taskvoice"

// Config holds every runtime knob.
type Config struct {
	// Resolution policy.
	AutoApplyThreshold   float64 `envconfig:"AUTO_APPLY_THRESHOLD" default:"0.8"`
	ConfirmThreshold     float64 `envconfig:"CONFIRM_THRESHOLD" default:"0.5"`
	MaxClarifyCandidates int     `envconfig:"MAX_CLARIFY_CANDIDATES" default:"5"`

	// Store behavior.
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	HandoffTTL       time.Duration `envconfig:"HANDOFF_TTL" default:"10m"`
	RecallTimeout    time.Duration `envconfig:"RECALL_TIMEOUT" default:"2s"`
	StrengthHalfLife time.Duration `envconfig:"STRENGTH_HALF_LIFE" default:"168h"`
	StrengthWeight   float64       `envconfig:"STRENGTH_WEIGHT" default:"0.1"`

	// ActionLogPath points Search-capable history at a SQLite file. Empty
	// keeps the log in memory.
	ActionLogPath string `envconfig:"ACTION_LOG_PATH"`

	// Actor attributed to committed action records.
	Actor string `envconfig:"ACTOR" default:"user"`

	// Logging.
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Default returns the baseline configuration without consulting the
// environment.
func Default() Config {
	return Config{
		AutoApplyThreshold:   0.8,
		ConfirmThreshold:     0.5,
		MaxClarifyCandidates: 5,
		SessionTTL:           2 * time.Hour,
		HandoffTTL:           10 * time.Minute,
		RecallTimeout:        2 * time.Second,
		StrengthHalfLife:     7 * 24 * time.Hour,
		StrengthWeight:       0.1,
		Actor:                "user",
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

// Load reads the configuration from TASKVOICE_* environment variables on top
// of the defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would violate the resolution policy.
func (c Config) Validate() error {
	if c.AutoApplyThreshold < 0 || c.AutoApplyThreshold > 1 {
		return fmt.Errorf("auto-apply threshold %v outside [0,1]", c.AutoApplyThreshold)
	}
	if c.ConfirmThreshold < 0 || c.ConfirmThreshold > 1 {
		return fmt.Errorf("confirm threshold %v outside [0,1]", c.ConfirmThreshold)
	}
	if c.ConfirmThreshold > c.AutoApplyThreshold {
		return fmt.Errorf("confirm threshold %v exceeds auto-apply threshold %v", c.ConfirmThreshold, c.AutoApplyThreshold)
	}
	if c.MaxClarifyCandidates <= 0 {
		return fmt.Errorf("max clarify candidates must be positive, got %d", c.MaxClarifyCandidates)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", c.SessionTTL)
	}
	return nil
}
