package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBaseBackoff = 500 * time.Millisecond
)

// Rate limiter defaults: 60 requests per minute with small bursts.
const (
	defaultRateLimit = 1.0
	defaultBurst     = 5
)

// ErrNotConfigured indicates the client was built without credentials.
var ErrNotConfigured = errors.New("llm: generator not configured")

// Generator is the generation-service contract the pipeline consumes.
// Invoke returns the raw model text or an error; callers never retry
// beyond what the implementation does internally.
type Generator interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Config holds generation client configuration.
type Config struct {
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	APIKey      string  `koanf:"api_key"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
	// Timeout bounds one Invoke call, independent of the owning task's
	// deadline.
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0,2], got %v", c.Temperature)
	}
	return nil
}

// Client implements Generator on top of langchaingo's OpenAI-compatible
// chat API (works with any compatible endpoint via BaseURL).
type Client struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	timeout     time.Duration
	maxRetries  int
	limiter     *rate.Limiter
}

// NewClient creates a generation client from config.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	opts := []openai.Option{openai.WithToken(cfg.APIKey)}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	opts = append(opts, openai.WithModel(model))
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		model:       m,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		maxRetries:  maxRetries,
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}, nil
}

// Invoke sends one prompt and returns the raw completion text. Transient
// failures are retried with exponential backoff inside the call's own
// timeout; the caller's context still bounds the total wait.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
			llms.WithMaxTokens(c.maxTokens),
			llms.WithTemperature(c.temperature),
		)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Disabled is the generator used when no credentials are configured.
// Every call fails with ErrNotConfigured, which the pipeline's per-task
// fallbacks absorb into degraded-but-valid results.
type Disabled struct{}

// Invoke implements Generator.
func (Disabled) Invoke(ctx context.Context, prompt string) (string, error) {
	return "", ErrNotConfigured
}

var (
	_ Generator = (*Client)(nil)
	_ Generator = Disabled{}
)
