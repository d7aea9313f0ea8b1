package pipeline

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// signalWeights is the fixed contribution of each signal to the composite
// score. Weights over the signals that actually produced a result are
// renormalized, so a degraded collector lowers coverage without silently
// dragging the composite toward zero.
var signalWeights = map[decision.SignalKind]float64{
	decision.SignalAmountAnomaly:   0.35,
	decision.SignalGeoDevice:       0.30,
	decision.SignalPolicyContext:   0.20,
	decision.SignalTemporalPattern: 0.15,
}

func (e *Engine) consolidateTask() Task {
	return Task{
		Name: "consolidate",
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			report := consolidate(e.cfg.Consolidation, state)
			return Result{
				Delta:    decision.Delta{Evidence: report},
				Degraded: report.Degraded,
				Summary:  fmt.Sprintf("score=%.1f category=%s", report.CompositeScore, report.Category),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Evidence: decision.EmptyEvidenceReport()}
		},
	}
}

// consolidate folds the phase-1 signals into one report. It is pure
// arithmetic over the state: same signals in, same report out.
func consolidate(cfg ConsolidationConfig, state *decision.State) *decision.EvidenceReport {
	var (
		weighted    float64
		totalWeight float64
		highSignals int
		factors     []string
	)
	scores := make(map[decision.SignalKind]float64)

	for _, kind := range decision.AllSignalKinds() {
		signal := state.Signal(kind)
		if signal.Degraded {
			continue
		}
		weight := signalWeights[kind]
		weighted += weight * signal.Score
		totalWeight += weight
		scores[kind] = signal.Score
		if signal.Score >= cfg.HighSignalScore {
			highSignals++
		}
		factors = append(factors, signal.Factors...)
	}

	// Nothing survived collection: the report is explicitly degraded
	// rather than a spurious zero-risk claim.
	if totalWeight == 0 {
		return decision.EmptyEvidenceReport()
	}

	composite := weighted / totalWeight
	if highSignals > 1 {
		composite += cfg.HighSignalBonus * float64(highSignals-1)
	}
	composite = decision.ClampScore(composite)

	return &decision.EvidenceReport{
		CompositeScore: composite,
		Category:       categorize(cfg, composite),
		SignalScores:   scores,
		RiskFactors:    factors,
	}
}

func categorize(cfg ConsolidationConfig, score float64) decision.RiskCategory {
	switch {
	case score < cfg.MediumScore:
		return decision.RiskLow
	case score < cfg.HighScore:
		return decision.RiskMedium
	case score <= cfg.CriticalScore:
		return decision.RiskHigh
	default:
		return decision.RiskCritical
	}
}
