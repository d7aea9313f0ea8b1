package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/structured"
)

// decisionSchema is the record the judge must produce.
type decisionSchema struct {
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (s *decisionSchema) Normalize() {
	s.Confidence = decision.ClampConfidence(s.Confidence)
	s.Outcome = strings.ToLower(strings.TrimSpace(s.Outcome))
}

// decideTask weighs the evidence and both arguments into a decision
// record. An unusable generation falls back to the deterministic mapping
// from risk category, so a dead model still yields conservative, safe
// outcomes rather than no outcome.
func (e *Engine) decideTask() Task {
	return Task{
		Name: "decide",
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			record := baseRecord(state)

			raw, err := e.generator.Invoke(ctx, decidePrompt(state))
			if err != nil {
				return Result{}, fmt.Errorf("decision generation: %w", err)
			}

			parsed, tag := structured.Decode[decisionSchema](raw)
			outcome := decision.Outcome(parsed.Outcome)
			if tag == structured.TagDegraded || !outcome.Valid() {
				fillDefaultDecision(record, state.Evidence())
				return Result{
					Delta:    decision.Delta{Decision: record},
					Degraded: true,
					Summary:  fmt.Sprintf("unparseable, defaulted to %s", record.Outcome),
				}, nil
			}

			record.Outcome = outcome
			record.Confidence = parsed.Confidence
			record.Reasoning = parsed.Reasoning
			return Result{
				Delta:   decision.Delta{Decision: record},
				Summary: fmt.Sprintf("outcome=%s confidence=%.2f", outcome, parsed.Confidence),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			record := baseRecord(state)
			fillDefaultDecision(record, state.Evidence())
			return decision.Delta{Decision: record}
		},
	}
}

// baseRecord carries the provenance every decision record has regardless
// of how the outcome itself is produced.
func baseRecord(state *decision.State) *decision.DecisionRecord {
	record := &decision.DecisionRecord{
		Signals:             state.Evidence().RiskFactors,
		FraudCitations:      state.FraudCase().Citations,
		LegitimateCitations: state.LegitimateCase().Citations,
	}
	for _, kind := range decision.AllSignalKinds() {
		if !state.Signal(kind).Degraded {
			record.TaskNames = append(record.TaskNames, string(kind))
		}
	}
	if !state.FraudCase().Degraded {
		record.TaskNames = append(record.TaskNames, "debate_fraud")
	}
	if !state.LegitimateCase().Degraded {
		record.TaskNames = append(record.TaskNames, "debate_legitimate")
	}
	return record
}

// fillDefaultDecision applies the deterministic category-to-outcome
// mapping. Confidence is moderate on purpose: without a model judgment
// the safety layer, not this mapping, has the final word.
func fillDefaultDecision(record *decision.DecisionRecord, report *decision.EvidenceReport) {
	record.Degraded = true

	if report.Degraded {
		record.Outcome = decision.OutcomeEscalate
		record.Confidence = 0.2
		record.Reasoning = "evidence collection produced no usable signals"
		return
	}

	switch report.Category {
	case decision.RiskLow:
		record.Outcome = decision.OutcomeApprove
		record.Confidence = 0.8
	case decision.RiskMedium:
		record.Outcome = decision.OutcomeChallenge
		record.Confidence = 0.65
	case decision.RiskHigh:
		record.Outcome = decision.OutcomeBlock
		record.Confidence = 0.7
	default:
		record.Outcome = decision.OutcomeBlock
		record.Confidence = 0.75
	}
	record.Reasoning = fmt.Sprintf("deterministic mapping from %s risk (composite %.1f)",
		report.Category, report.CompositeScore)
}
