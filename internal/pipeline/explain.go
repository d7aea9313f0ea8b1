package pipeline

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/structured"
)

// explanationSchema is the record the narrator must produce.
type explanationSchema struct {
	CustomerNarrative string `json:"customer_narrative"`
	AuditNarrative    string `json:"audit_narrative"`
}

// explainTask renders the finalized decision into two narratives. It runs
// after the safety overrides, so an overridden outcome is explained as
// such, never the outcome the judge originally proposed.
func (e *Engine) explainTask() Task {
	return Task{
		Name: "explain",
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			raw, err := e.generator.Invoke(ctx, explainPrompt(state))
			if err != nil {
				return Result{}, fmt.Errorf("explanation generation: %w", err)
			}

			parsed, tag := structured.Decode[explanationSchema](raw)
			if tag == structured.TagDegraded || parsed.CustomerNarrative == "" || parsed.AuditNarrative == "" {
				return Result{
					Delta:    decision.Delta{Explanation: templateExplanation(state)},
					Degraded: true,
					Summary:  "unparseable narratives, templated",
				}, nil
			}

			return Result{
				Delta: decision.Delta{Explanation: &decision.Explanation{
					CustomerNarrative: parsed.CustomerNarrative,
					AuditNarrative:    parsed.AuditNarrative,
				}},
				Summary: "narratives generated",
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Explanation: templateExplanation(state)}
		},
	}
}

// customerLines keeps the customer-facing wording fixed per outcome;
// free-form model text is for the audit narrative, not the customer.
var customerLines = map[decision.Outcome]string{
	decision.OutcomeApprove:   "Your transaction was approved.",
	decision.OutcomeChallenge: "We need to verify this transaction. Please confirm it through your banking app.",
	decision.OutcomeBlock:     "This transaction was declined for your protection. Contact support if you believe this is an error.",
	decision.OutcomeEscalate:  "This transaction is under review. We will notify you once the review completes.",
}

// templateExplanation is the deterministic substitute narrative. The
// audit side states the mechanics; it never speculates beyond the record.
func templateExplanation(state *decision.State) *decision.Explanation {
	record := state.Decision()
	report := state.Evidence()
	if record == nil {
		record = &decision.DecisionRecord{Outcome: decision.OutcomeEscalate, Degraded: true}
	}

	audit := fmt.Sprintf("Outcome %s at confidence %.2f from %s risk (composite score %.1f).",
		record.Outcome, record.Confidence, report.Category, report.CompositeScore)
	if len(report.RiskFactors) > 0 {
		audit += fmt.Sprintf(" Risk factors: %v.", report.RiskFactors)
	}
	if record.Overridden {
		audit += " Safety override applied: " + record.OverrideReason
	}

	return &decision.Explanation{
		CustomerNarrative: customerLines[record.Outcome],
		AuditNarrative:    audit,
		Degraded:          true,
	}
}
