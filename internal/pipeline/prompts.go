package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// Prompts ask for one bare JSON object. The structured decoder tolerates
// fenced or chatty responses anyway; the instruction just raises the
// first-stage parse rate.

const debatePromptTmpl = `You are a %s advocate reviewing a card transaction.
Argue the strongest possible case that this transaction is %s, grounded
only in the evidence below. Cite the risk factors or signal kinds you
rely on by name.

Transaction:
%s

Consolidated evidence:
%s

Signals:
%s

Respond with a single JSON object and nothing else:
{"argument": "<your argument>", "confidence": <0.0-1.0>, "citations": ["<factor or signal>", ...]}`

func debatePrompt(position decision.DebatePosition, state *decision.State) string {
	stance := "fraudulent"
	if position == decision.PositionLegitimate {
		stance = "legitimate"
	}
	return fmt.Sprintf(debatePromptTmpl,
		stance, stance,
		compactJSON(state.Input()),
		compactJSON(state.Evidence()),
		signalDigest(state),
	)
}

const decidePromptTmpl = `You are the deciding judge for a card transaction.
Weigh the consolidated evidence and both adversarial arguments, then pick
exactly one outcome: approve, challenge, block or escalate.

Consolidated evidence:
%s

Fraud advocate (confidence %.2f):
%s

Legitimate advocate (confidence %.2f):
%s

Respond with a single JSON object and nothing else:
{"outcome": "approve|challenge|block|escalate", "confidence": <0.0-1.0>, "reasoning": "<why>"}`

func decidePrompt(state *decision.State) string {
	fraud := state.FraudCase()
	legit := state.LegitimateCase()
	return fmt.Sprintf(decidePromptTmpl,
		compactJSON(state.Evidence()),
		fraud.Confidence, orNone(fraud.Argument),
		legit.Confidence, orNone(legit.Argument),
	)
}

const explainPromptTmpl = `Write two explanations for a finalized card
transaction decision. The customer narrative is one or two sentences,
plain language, no internal scores or thresholds. The audit narrative is
for compliance reviewers and references the evidence precisely.

Decision:
%s

Consolidated evidence:
%s

Respond with a single JSON object and nothing else:
{"customer_narrative": "<text>", "audit_narrative": "<text>"}`

func explainPrompt(state *decision.State) string {
	return fmt.Sprintf(explainPromptTmpl,
		compactJSON(state.Decision()),
		compactJSON(state.Evidence()),
	)
}

func signalDigest(state *decision.State) string {
	var b strings.Builder
	for _, kind := range decision.AllSignalKinds() {
		signal := state.Signal(kind)
		if signal.Degraded {
			fmt.Fprintf(&b, "- %s: unavailable\n", kind)
			continue
		}
		fmt.Fprintf(&b, "- %s: score %.1f, confidence %.2f: %s\n",
			kind, signal.Score, signal.Confidence, signal.Rationale)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNone(argument string) string {
	if argument == "" {
		return "(no argument produced)"
	}
	return argument
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
