package pipeline

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/evidence"
)

// Phase-1 collectors. Three are deterministic reads of the transaction
// against the profile; the fourth fans out to the evidence providers.
// Each returns exactly one signal and owns no other field.

// Amount ladder: score by the ratio of the amount to the customer's
// historical average.
const (
	amountRatioElevated = 2.5
	amountRatioExtreme  = 5.0
)

func amountScore(ratio float64) float64 {
	switch {
	case ratio <= 1.5:
		return 5
	case ratio <= 2:
		return 25
	case ratio <= 3:
		return 45
	case ratio <= 5:
		return 65
	case ratio <= 7:
		return 80
	default:
		return 90
	}
}

// historyConfidence scales signal confidence by how much history backs
// the profile averages.
func historyConfidence(depth int) float64 {
	switch {
	case depth >= 30:
		return 0.9
	case depth >= 10:
		return 0.75
	default:
		return 0.5
	}
}

func (e *Engine) amountAnomalyTask() Task {
	return Task{
		Name: string(decision.SignalAmountAnomaly),
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			tx := state.Input()
			profile := state.Profile()

			signal := &decision.SignalResult{Kind: decision.SignalAmountAnomaly}
			if profile.AverageAmount <= 0 {
				signal.Confidence = 0.2
				signal.Rationale = "no spending history to compare against"
				return Result{
					Delta:   decision.Delta{Signal: signal},
					Summary: "score=0.0 (no history)",
				}, nil
			}

			ratio := tx.Amount / profile.AverageAmount
			signal.Score = amountScore(ratio)
			signal.Confidence = historyConfidence(profile.HistoryDepth)
			signal.Rationale = fmt.Sprintf("amount %.2f is %.1fx the historical average %.2f",
				tx.Amount, ratio, profile.AverageAmount)
			switch {
			case ratio >= amountRatioExtreme:
				signal.Factors = []string{"extreme_amount"}
			case ratio >= amountRatioElevated:
				signal.Factors = []string{"elevated_amount"}
			}

			return Result{
				Delta:   decision.Delta{Signal: signal},
				Summary: fmt.Sprintf("score=%.1f ratio=%.1f", signal.Score, ratio),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Signal: decision.EmptySignal(decision.SignalAmountAnomaly)}
		},
	}
}

// Temporal scores.
const (
	temporalUsualScore   = 5
	temporalUnusualScore = 60
)

func (e *Engine) temporalPatternTask() Task {
	return Task{
		Name: string(decision.SignalTemporalPattern),
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			hour := state.Input().Timestamp.Hour()
			profile := state.Profile()

			signal := &decision.SignalResult{Kind: decision.SignalTemporalPattern}
			if profile.InUsualHours(hour) {
				signal.Score = temporalUsualScore
				signal.Confidence = 0.85
				signal.Rationale = fmt.Sprintf("hour %02d falls inside the usual activity window", hour)
			} else {
				signal.Score = temporalUnusualScore
				signal.Confidence = 0.8
				signal.Rationale = fmt.Sprintf("hour %02d is outside the usual window %02d-%02d",
					hour, profile.UsualHourStart, profile.UsualHourEnd)
				signal.Factors = []string{"unusual_hour"}
			}

			return Result{
				Delta:   decision.Delta{Signal: signal},
				Summary: fmt.Sprintf("score=%.1f hour=%02d", signal.Score, hour),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Signal: decision.EmptySignal(decision.SignalTemporalPattern)}
		},
	}
}

// Geo/device scores. Device and country anomalies compound: a new device
// in a new country is close to the ceiling on its own.
const (
	geoBaseScore        = 5
	unknownDeviceScore  = 50
	unusualCountryScore = 45
)

func (e *Engine) geoDeviceTask() Task {
	return Task{
		Name: string(decision.SignalGeoDevice),
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			tx := state.Input()
			profile := state.Profile()

			signal := &decision.SignalResult{
				Kind:       decision.SignalGeoDevice,
				Score:      geoBaseScore,
				Confidence: 0.85,
			}
			if !profile.UsesKnownDevice(tx.DeviceID) {
				signal.Score += unknownDeviceScore
				signal.Factors = append(signal.Factors, "unknown_device")
			}
			if !profile.InUsualCountry(tx.Country) {
				signal.Score += unusualCountryScore
				signal.Factors = append(signal.Factors, "unusual_country")
			}
			signal.Score = decision.ClampScore(signal.Score)

			switch len(signal.Factors) {
			case 0:
				signal.Rationale = "known device in a usual country"
			default:
				signal.Rationale = fmt.Sprintf("device %q, country %q deviate from the profile: %v",
					tx.DeviceID, tx.Country, signal.Factors)
			}

			return Result{
				Delta:   decision.Delta{Signal: signal},
				Summary: fmt.Sprintf("score=%.1f factors=%d", signal.Score, len(signal.Factors)),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Signal: decision.EmptySignal(decision.SignalGeoDevice)}
		},
	}
}

// Policy/context scores. This collector is the provider fan-out consumer:
// policy search, external reputation and behavioral lookups all land here
// as evidence items, and the aggregate confidence drives the score.
const (
	policyQuietScore    = 5
	contextualFlagLevel = 0.6
)

func (e *Engine) policyContextTask() Task {
	return Task{
		Name: string(decision.SignalPolicyContext),
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			tx := state.Input()
			agg := e.aggregator.Lookup(ctx, evidence.Request{
				Transaction: tx,
				Profile:     state.Profile(),
				Query: fmt.Sprintf("%s transaction of %.2f %s in %s, merchant %s",
					tx.Category, tx.Amount, tx.Currency, tx.Country, tx.MerchantID),
			})

			signal := &decision.SignalResult{
				Kind:     decision.SignalPolicyContext,
				Evidence: agg.Items,
			}
			if agg.Empty() {
				signal.Score = policyQuietScore
				signal.Confidence = 0.3
				signal.Rationale = "no matching policy or contextual flags"
				// Every provider failing and producing nothing is a degraded
				// result, not a clean no-match.
				signal.Degraded = len(agg.Failures) > 0
			} else {
				signal.Score = decision.ClampScore(100 * agg.Confidence)
				signal.Confidence = agg.Confidence
				signal.Rationale = fmt.Sprintf("%d evidence items across providers, aggregate confidence %.2f",
					len(agg.Items), agg.Confidence)
				if agg.Confidence >= contextualFlagLevel {
					signal.Factors = []string{"contextual_flag"}
				}
			}

			return Result{
				Delta:    decision.Delta{Signal: signal},
				Degraded: signal.Degraded,
				Summary:  fmt.Sprintf("score=%.1f items=%d failures=%d", signal.Score, len(agg.Items), len(agg.Failures)),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Signal: decision.EmptySignal(decision.SignalPolicyContext)}
		},
	}
}
