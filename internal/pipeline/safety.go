package pipeline

import (
	"fmt"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// applySafetyOverrides is the deterministic, side-effect-free backstop
// applied unconditionally after the decision task and before the
// explanation phase may read the decision. It bounds the worst-case harm
// of a wrong probabilistic judgment:
//
//  1. Evidence the pipeline already scored critical must never be
//     approved: force block, raising confidence to the configured floor.
//  2. High-impact automation under low confidence is forbidden: force
//     escalation to a human when the (possibly already raised) confidence
//     is still below the minimum.
//
// The risk rule runs first; the confidence rule then re-checks against
// the adjusted confidence. The input record is not mutated.
func applySafetyOverrides(cfg SafetyConfig, record *decision.DecisionRecord, evidence *decision.EvidenceReport) *decision.DecisionRecord {
	out := *record

	if evidence.CompositeScore > cfg.CriticalScore {
		if out.Outcome != decision.OutcomeBlock {
			out.OverrideReason = fmt.Sprintf(
				"composite risk score %.1f exceeds critical threshold %.1f; forcing block (proposed: %s)",
				evidence.CompositeScore, cfg.CriticalScore, out.Outcome)
			out.Outcome = decision.OutcomeBlock
			out.Overridden = true
		}
		if out.Confidence < cfg.BlockConfidenceFloor {
			if !out.Overridden {
				out.OverrideReason = fmt.Sprintf(
					"composite risk score %.1f exceeds critical threshold %.1f; raising block confidence %.2f to floor %.2f",
					evidence.CompositeScore, cfg.CriticalScore, out.Confidence, cfg.BlockConfidenceFloor)
			}
			out.Confidence = cfg.BlockConfidenceFloor
			out.Overridden = true
		}
	}

	if out.Confidence < cfg.MinConfidence {
		out.OverrideReason = fmt.Sprintf(
			"confidence %.2f below minimum %.2f; escalating to human review (proposed: %s)",
			out.Confidence, cfg.MinConfidence, out.Outcome)
		out.Outcome = decision.OutcomeEscalate
		out.Overridden = true
	}

	return &out
}
