package pipeline

import (
	"fmt"
	"time"
)

// Default timing bounds. The per-run bound is a backstop above the
// per-task bounds, not expected to trigger when task deadlines hold.
const (
	DefaultTaskTimeout     = 30 * time.Second
	DefaultRunTimeout      = 60 * time.Second
	DefaultProviderTimeout = 5 * time.Second
)

// Config holds pipeline configuration.
type Config struct {
	TaskTimeout     time.Duration `koanf:"task_timeout"`
	RunTimeout      time.Duration `koanf:"run_timeout"`
	ProviderTimeout time.Duration `koanf:"provider_timeout"`

	// CorroborationBonus is the flat confidence bonus per additional
	// corroborating evidence source beyond the first.
	CorroborationBonus float64 `koanf:"corroboration_bonus"`

	Consolidation ConsolidationConfig `koanf:"consolidation"`
	Safety        SafetyConfig        `koanf:"safety"`
}

// ConsolidationConfig controls composite scoring and bucketing.
type ConsolidationConfig struct {
	// Bucket edges: score < MediumScore is low, < HighScore is medium,
	// <= CriticalScore is high, above it critical.
	MediumScore   float64 `koanf:"medium_score"`
	HighScore     float64 `koanf:"high_score"`
	CriticalScore float64 `koanf:"critical_score"`

	// HighSignalScore marks an individual signal as high-risk; each
	// high-risk signal beyond the first adds HighSignalBonus to the
	// composite score. Independent signals agreeing is worse than any
	// one of them alone.
	HighSignalScore float64 `koanf:"high_signal_score"`
	HighSignalBonus float64 `koanf:"high_signal_bonus"`
}

// SafetyConfig holds the deterministic override thresholds. These are
// policy decisions, deliberately configuration rather than constants.
type SafetyConfig struct {
	// CriticalScore: a composite risk score above this forces a block.
	CriticalScore float64 `koanf:"critical_score"`

	// BlockConfidenceFloor: a forced block carries at least this
	// confidence.
	BlockConfidenceFloor float64 `koanf:"block_confidence_floor"`

	// MinConfidence: a final confidence below this forces escalation to
	// a human.
	MinConfidence float64 `koanf:"min_confidence"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() Config {
	return Config{
		TaskTimeout:        DefaultTaskTimeout,
		RunTimeout:         DefaultRunTimeout,
		ProviderTimeout:    DefaultProviderTimeout,
		CorroborationBonus: 0.1,
		Consolidation: ConsolidationConfig{
			MediumScore:     30,
			HighScore:       60,
			CriticalScore:   85,
			HighSignalScore: 60,
			HighSignalBonus: 7.5,
		},
		Safety: SafetyConfig{
			CriticalScore:        85,
			BlockConfidenceFloor: 0.85,
			MinConfidence:        0.5,
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.TaskTimeout <= 0 {
		return fmt.Errorf("task_timeout must be > 0")
	}
	if c.RunTimeout < c.TaskTimeout {
		return fmt.Errorf("run_timeout must be >= task_timeout")
	}
	if c.ProviderTimeout <= 0 || c.ProviderTimeout >= c.TaskTimeout {
		return fmt.Errorf("provider_timeout must be in (0, task_timeout)")
	}
	if c.CorroborationBonus < 0 || c.CorroborationBonus > 1 {
		return fmt.Errorf("corroboration_bonus must be in [0,1]")
	}
	cc := c.Consolidation
	if !(cc.MediumScore < cc.HighScore && cc.HighScore < cc.CriticalScore) {
		return fmt.Errorf("consolidation bucket edges must be strictly increasing")
	}
	sc := c.Safety
	if sc.CriticalScore <= 0 || sc.CriticalScore > 100 {
		return fmt.Errorf("safety critical_score must be in (0,100]")
	}
	if sc.BlockConfidenceFloor < 0 || sc.BlockConfidenceFloor > 1 {
		return fmt.Errorf("safety block_confidence_floor must be in [0,1]")
	}
	if sc.MinConfidence < 0 || sc.MinConfidence > 1 {
		return fmt.Errorf("safety min_confidence must be in [0,1]")
	}
	return nil
}
