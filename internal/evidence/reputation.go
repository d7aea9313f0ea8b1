package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

const reputationProviderName = "external_reputation"

// Reputation client defaults: 50 requests per minute, small bursts.
const (
	reputationRateLimit = 50.0 / 60.0
	reputationBurst     = 5
	reputationTimeout   = 5 * time.Second
)

// ReputationConfig holds external reputation service configuration.
type ReputationConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// ReputationProvider queries an external merchant/device reputation
// service over HTTP. The service is consumed as an opaque evidence source;
// how it computes its scores is not this package's concern.
type ReputationProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewReputationProvider creates the HTTP client.
func NewReputationProvider(cfg ReputationConfig) (*ReputationProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("reputation base_url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = reputationTimeout
	}
	return &ReputationProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(reputationRateLimit), reputationBurst),
	}, nil
}

// Name implements Provider.
func (p *ReputationProvider) Name() string { return reputationProviderName }

// reputationRequest is the lookup payload.
type reputationRequest struct {
	MerchantID string `json:"merchant_id"`
	DeviceID   string `json:"device_id,omitempty"`
	Country    string `json:"country,omitempty"`
}

// reputationResponse is the service's answer.
type reputationResponse struct {
	Flags []struct {
		Kind   string  `json:"kind"`
		Score  float64 `json:"score"`
		Detail string  `json:"detail,omitempty"`
	} `json:"flags"`
}

// Lookup implements Provider.
func (p *ReputationProvider) Lookup(ctx context.Context, req Request) ([]decision.EvidenceItem, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(reputationRequest{
		MerchantID: req.Transaction.MerchantID,
		DeviceID:   req.Transaction.DeviceID,
		Country:    req.Transaction.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/reputation/lookup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("reputation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reputation service returned %d: %s", resp.StatusCode, string(body))
	}

	var repResp reputationResponse
	if err := json.Unmarshal(body, &repResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	items := make([]decision.EvidenceItem, 0, len(repResp.Flags))
	for _, f := range repResp.Flags {
		items = append(items, decision.EvidenceItem{
			Source:     reputationProviderName,
			Confidence: decision.ClampConfidence(f.Score),
			Detail: map[string]any{
				"kind":   f.Kind,
				"detail": f.Detail,
			},
		})
	}
	return items, nil
}

var _ Provider = (*ReputationProvider)(nil)
