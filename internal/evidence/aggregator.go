package evidence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// Default aggregation values.
const (
	defaultProviderTimeout    = 5 * time.Second
	defaultCorroborationBonus = 0.1
)

// Request is the lookup input handed to every provider.
type Request struct {
	Transaction decision.Transaction
	Profile     decision.CustomerProfile
	// Query is an optional free-text hint, e.g. for similarity search.
	Query string
}

// Provider is one independent evidence source.
type Provider interface {
	// Name identifies the provider in evidence items and failure logs.
	Name() string

	// Lookup returns zero or more evidence items for the request.
	Lookup(ctx context.Context, req Request) ([]decision.EvidenceItem, error)
}

// Aggregate is the merged result of one fan-out.
type Aggregate struct {
	// Items holds every surviving evidence item across providers.
	Items []decision.EvidenceItem

	// Confidence is the aggregated score: the maximum individual item
	// confidence plus a flat bonus per corroborating source beyond the
	// first, clamped to [0,1]. Corroboration across independent sources
	// outranks a single strong signal.
	Confidence float64

	// Failures names the providers that errored or timed out.
	Failures []string
}

// Empty reports the explicit no-evidence value: zero providers returned
// any item. This is a valid task output, not an error.
func (a Aggregate) Empty() bool {
	return len(a.Items) == 0
}

// Aggregator fans a request out to a fixed provider set.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	bonus     float64
	logger    *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithProviderTimeout sets the per-provider deadline. It must be shorter
// than the owning task's overall timeout.
func WithProviderTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithCorroborationBonus sets the flat per-source bonus.
func WithCorroborationBonus(bonus float64) Option {
	return func(a *Aggregator) {
		if bonus >= 0 {
			a.bonus = bonus
		}
	}
}

// NewAggregator creates an aggregator over the given providers.
func NewAggregator(logger *zap.Logger, providers []Provider, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		providers: providers,
		timeout:   defaultProviderTimeout,
		bonus:     defaultCorroborationBonus,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lookup invokes all providers concurrently and merges surviving results.
// It never returns an error: per-provider failure is contained and
// reported on the aggregate.
func (a *Aggregator) Lookup(ctx context.Context, req Request) Aggregate {
	type outcome struct {
		name  string
		items []decision.EvidenceItem
		err   error
	}

	results := make([]outcome, len(a.providers))

	var g errgroup.Group
	for i, p := range a.providers {
		g.Go(func() error {
			results[i] = outcome{name: p.Name()}
			pctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			items, err := lookupSafely(pctx, p, req)
			results[i].items = items
			results[i].err = err
			return nil
		})
	}
	_ = g.Wait() // providers never propagate errors through the group

	var agg Aggregate
	sources := make(map[string]struct{})
	for _, r := range results {
		if r.err != nil {
			a.logger.Warn("evidence provider failed",
				zap.String("provider", r.name),
				zap.Error(r.err),
			)
			agg.Failures = append(agg.Failures, r.name)
			continue
		}
		for _, item := range r.items {
			item.Confidence = decision.ClampConfidence(item.Confidence)
			agg.Items = append(agg.Items, item)
			if item.Confidence > agg.Confidence {
				agg.Confidence = item.Confidence
			}
			sources[item.Source] = struct{}{}
		}
	}

	if len(sources) > 1 {
		agg.Confidence += a.bonus * float64(len(sources)-1)
	}
	agg.Confidence = decision.ClampConfidence(agg.Confidence)
	return agg
}

// lookupSafely contains provider panics so a misbehaving provider can
// never crash the owning task.
func lookupSafely(ctx context.Context, p Provider, req Request) (items []decision.EvidenceItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return p.Lookup(ctx, req)
}
