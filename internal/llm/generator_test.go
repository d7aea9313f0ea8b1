package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{APIKey: "sk-123"},
		},
		{
			name:    "missing api key",
			cfg:     Config{},
			wantErr: "api_key",
		},
		{
			name:    "negative max tokens",
			cfg:     Config{APIKey: "sk-123", MaxTokens: -1},
			wantErr: "max_tokens",
		},
		{
			name:    "temperature out of range",
			cfg:     Config{APIKey: "sk-123", Temperature: 2.5},
			wantErr: "temperature",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "sk-123"})
	require.NoError(t, err)

	assert.Equal(t, defaultMaxTokens, client.maxTokens)
	assert.Equal(t, defaultTemperature, client.temperature)
	assert.Equal(t, defaultTimeout, client.timeout)
	assert.Equal(t, defaultMaxRetries, client.maxRetries)
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid llm config")
}

func TestDisabled_InvokeAlwaysFails(t *testing.T) {
	var g Generator = Disabled{}

	text, err := g.Invoke(context.Background(), "anything")
	assert.Empty(t, text)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Invoke_HonoursCancelledContext(t *testing.T) {
	client, err := NewClient(Config{APIKey: "sk-123", Timeout: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Invoke(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
}
