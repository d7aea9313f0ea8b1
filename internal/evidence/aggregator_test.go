package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// stubProvider returns canned items or a canned error.
type stubProvider struct {
	name  string
	items []decision.EvidenceItem
	err   error
	delay time.Duration
	panic bool
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Lookup(ctx context.Context, req Request) ([]decision.EvidenceItem, error) {
	if p.panic {
		panic("provider exploded")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.items, p.err
}

func item(source string, confidence float64) decision.EvidenceItem {
	return decision.EvidenceItem{Source: source, Confidence: confidence}
}

func TestAggregator_Lookup_MergesWithCorroborationBonus(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "a", items: []decision.EvidenceItem{item("a", 0.6)}},
		&stubProvider{name: "b", items: []decision.EvidenceItem{item("b", 0.4)}},
		&stubProvider{name: "c", items: []decision.EvidenceItem{item("c", 0.3)}},
	})

	result := agg.Lookup(context.Background(), Request{})

	require.Len(t, result.Items, 3)
	assert.Empty(t, result.Failures)
	// max(0.6) + 0.1 per corroborating source beyond the first.
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestAggregator_Lookup_ConfidenceClampedToOne(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "a", items: []decision.EvidenceItem{item("a", 0.95)}},
		&stubProvider{name: "b", items: []decision.EvidenceItem{item("b", 0.9)}},
		&stubProvider{name: "c", items: []decision.EvidenceItem{item("c", 0.9)}},
	})

	result := agg.Lookup(context.Background(), Request{})
	assert.Equal(t, 1.0, result.Confidence)
}

func TestAggregator_Lookup_SingleSourceGetsNoBonus(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "a", items: []decision.EvidenceItem{
			item("a", 0.5),
			item("a", 0.7),
		}},
	})

	result := agg.Lookup(context.Background(), Request{})
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
}

func TestAggregator_Lookup_ContainsFailures(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "healthy", items: []decision.EvidenceItem{item("healthy", 0.6)}},
		&stubProvider{name: "broken", err: errors.New("boom")},
		&stubProvider{name: "panicky", panic: true},
	})

	result := agg.Lookup(context.Background(), Request{})

	require.Len(t, result.Items, 1)
	assert.ElementsMatch(t, []string{"broken", "panicky"}, result.Failures)
	assert.InDelta(t, 0.6, result.Confidence, 1e-9)
}

func TestAggregator_Lookup_SlowProviderTimesOut(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "fast", items: []decision.EvidenceItem{item("fast", 0.5)}},
		&stubProvider{name: "slow", delay: time.Second, items: []decision.EvidenceItem{item("slow", 0.9)}},
	}, WithProviderTimeout(20*time.Millisecond))

	result := agg.Lookup(context.Background(), Request{})

	require.Len(t, result.Items, 1)
	assert.Equal(t, "fast", result.Items[0].Source)
	assert.Equal(t, []string{"slow"}, result.Failures)
}

func TestAggregator_Lookup_AllFailedIsEmptyNotError(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "broken", err: errors.New("down")},
	})

	result := agg.Lookup(context.Background(), Request{})
	assert.True(t, result.Empty())
	assert.Zero(t, result.Confidence)
	assert.Equal(t, []string{"broken"}, result.Failures)
}

func TestAggregator_Lookup_MalformedItemConfidenceIsClamped(t *testing.T) {
	agg := NewAggregator(zap.NewNop(), []Provider{
		&stubProvider{name: "a", items: []decision.EvidenceItem{item("a", 7.0)}},
	})

	result := agg.Lookup(context.Background(), Request{})
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1.0, result.Items[0].Confidence)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestBehaviorProvider_Lookup(t *testing.T) {
	provider := NewBehaviorProvider()
	profile := decision.CustomerProfile{
		UsualCountries: []string{"DE", "FR"},
		KnownDevices:   []string{"dev-1"},
	}

	t.Run("matching profile yields nothing", func(t *testing.T) {
		items, err := provider.Lookup(context.Background(), Request{
			Transaction: decision.Transaction{DeviceID: "dev-1", Country: "DE"},
			Profile:     profile,
		})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unknown device and country both surface", func(t *testing.T) {
		items, err := provider.Lookup(context.Background(), Request{
			Transaction: decision.Transaction{DeviceID: "dev-9", Country: "BR"},
			Profile:     profile,
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "unknown_device", items[0].Detail["kind"])
		assert.Equal(t, "unusual_country", items[1].Detail["kind"])
	})
}
