// Package config provides configuration loading for verdictd.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/verdictd/internal/evidence"
	"github.com/fyrsmithlabs/verdictd/internal/llm"
	"github.com/fyrsmithlabs/verdictd/internal/logging"
	"github.com/fyrsmithlabs/verdictd/internal/pipeline"
	"github.com/fyrsmithlabs/verdictd/internal/progress"
	"github.com/fyrsmithlabs/verdictd/internal/telemetry"
)

// Config is the root configuration for the service.
type Config struct {
	Pipeline   pipeline.Config           `koanf:"pipeline"`
	LLM        llm.Config                `koanf:"llm"`
	Policy     evidence.PolicyConfig     `koanf:"policy"`
	Reputation evidence.ReputationConfig `koanf:"reputation"`
	Progress   progress.Config           `koanf:"progress"`
	Audit      AuditConfig               `koanf:"audit"`
	Logging    *logging.Config           `koanf:"logging"`
	Telemetry  *telemetry.Config         `koanf:"telemetry"`

	// Secrets are kept apart from tunables so the rest of the tree can be
	// dumped or diffed without leaking credentials.
	Secrets SecretsConfig `koanf:"secrets"`
}

// AuditConfig controls decision persistence.
type AuditConfig struct {
	// Path of the JSONL audit log. Empty keeps records in memory only.
	Path string `koanf:"path"`
}

// SecretsConfig holds every credential the service uses.
type SecretsConfig struct {
	LLMAPIKey        Secret `koanf:"llm_api_key"`
	ReputationAPIKey Secret `koanf:"reputation_api_key"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Pipeline:  pipeline.NewDefaultConfig(),
		Logging:   logging.NewDefaultConfig(),
		Telemetry: telemetry.NewDefaultConfig(),
	}
}

// Validate checks the whole tree for errors.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	// The LLM and reputation sections are validated by their own
	// constructors at wiring time; both are optional here because the
	// pipeline degrades without them.
	return nil
}

// applySecrets copies credentials into the client configs after loading.
func (c *Config) applySecrets() {
	if c.Secrets.LLMAPIKey.IsSet() {
		c.LLM.APIKey = c.Secrets.LLMAPIKey.Value()
	}
	if c.Secrets.ReputationAPIKey.IsSet() {
		c.Reputation.APIKey = c.Secrets.ReputationAPIKey.Value()
	}
}
