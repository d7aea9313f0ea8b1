package decision

import (
	"time"
)

// Transaction is the input record for one run. It is never mutated.
type Transaction struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Country    string    `json:"country"`
	DeviceID   string    `json:"device_id"`
	MerchantID string    `json:"merchant_id"`
	Category   string    `json:"category,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CustomerProfile summarizes the customer's transaction history. It is
// loaded alongside the transaction and read-only for the whole run.
type CustomerProfile struct {
	CustomerID     string   `json:"customer_id"`
	AverageAmount  float64  `json:"average_amount"`
	UsualCountries []string `json:"usual_countries"`
	// UsualHourStart/End bound the customer's typical activity window in
	// local hours [0,24). A window may wrap midnight (start > end).
	UsualHourStart int      `json:"usual_hour_start"`
	UsualHourEnd   int      `json:"usual_hour_end"`
	KnownDevices   []string `json:"known_devices"`
	HistoryDepth   int      `json:"history_depth"`
}

// UsesKnownDevice reports whether the device has been seen before.
func (p *CustomerProfile) UsesKnownDevice(deviceID string) bool {
	for _, d := range p.KnownDevices {
		if d == deviceID {
			return true
		}
	}
	return false
}

// InUsualCountry reports whether the country is part of the profile.
func (p *CustomerProfile) InUsualCountry(country string) bool {
	for _, c := range p.UsualCountries {
		if c == country {
			return true
		}
	}
	return false
}

// InUsualHours reports whether the hour falls inside the activity window.
func (p *CustomerProfile) InUsualHours(hour int) bool {
	if p.UsualHourStart == p.UsualHourEnd {
		return true // no window recorded
	}
	if p.UsualHourStart < p.UsualHourEnd {
		return hour >= p.UsualHourStart && hour < p.UsualHourEnd
	}
	// Window wraps midnight, e.g. 22..06.
	return hour >= p.UsualHourStart || hour < p.UsualHourEnd
}

// SignalKind identifies one of the four evidence-collection tasks.
type SignalKind string

const (
	SignalAmountAnomaly   SignalKind = "amount_anomaly"
	SignalTemporalPattern SignalKind = "temporal_pattern"
	SignalGeoDevice       SignalKind = "geo_device"
	SignalPolicyContext   SignalKind = "policy_context"
)

// AllSignalKinds returns the signal kinds in canonical order.
func AllSignalKinds() []SignalKind {
	return []SignalKind{
		SignalAmountAnomaly,
		SignalTemporalPattern,
		SignalGeoDevice,
		SignalPolicyContext,
	}
}

// EvidenceItem is one piece of evidence produced by a provider. Items are
// ephemeral: they exist inside a single task execution and are folded into
// that task's SignalResult before the task returns.
type EvidenceItem struct {
	Source     string         `json:"source"`
	Confidence float64        `json:"confidence"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// SignalResult is the output of one phase-1 collection task.
//
// A degraded result is still schema-valid: zero score, zero confidence,
// empty evidence. Downstream phases never see a missing signal, only an
// empty one.
type SignalResult struct {
	Kind       SignalKind     `json:"kind"`
	Score      float64        `json:"score"`      // [0,100]
	Confidence float64        `json:"confidence"` // [0,1]
	Rationale  string         `json:"rationale,omitempty"`
	Factors    []string       `json:"factors,omitempty"`
	Evidence   []EvidenceItem `json:"evidence,omitempty"`
	Degraded   bool           `json:"degraded,omitempty"`
}

// EmptySignal returns the schema-valid empty result for a signal kind.
func EmptySignal(kind SignalKind) *SignalResult {
	return &SignalResult{Kind: kind, Degraded: true}
}

// RiskCategory buckets the composite risk score.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskMedium   RiskCategory = "medium"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// EvidenceReport is the consolidated phase-2 record.
type EvidenceReport struct {
	CompositeScore float64                `json:"composite_score"` // [0,100]
	Category       RiskCategory           `json:"category"`
	SignalScores   map[SignalKind]float64 `json:"signal_scores"`
	RiskFactors    []string               `json:"risk_factors,omitempty"`
	Degraded       bool                   `json:"degraded,omitempty"`
}

// EmptyEvidenceReport returns the schema-valid empty consolidation result.
func EmptyEvidenceReport() *EvidenceReport {
	return &EvidenceReport{
		Category:     RiskLow,
		SignalScores: map[SignalKind]float64{},
		Degraded:     true,
	}
}

// DebatePosition is the side a debate task argues.
type DebatePosition string

const (
	PositionFraud      DebatePosition = "fraud"
	PositionLegitimate DebatePosition = "legitimate"
)

// DebateArgument is the output of one phase-3 debate task.
type DebateArgument struct {
	Position   DebatePosition `json:"position"`
	Argument   string         `json:"argument"`
	Confidence float64        `json:"confidence"` // [0,1]
	Citations  []string       `json:"citations,omitempty"`
	Degraded   bool           `json:"degraded,omitempty"`
}

// EmptyDebateArgument returns the schema-valid empty argument for a side.
func EmptyDebateArgument(position DebatePosition) *DebateArgument {
	return &DebateArgument{Position: position, Degraded: true}
}

// Outcome is the terminal tag of a run. Terminal routing is keyed on this
// value and nothing else.
type Outcome string

const (
	OutcomeApprove   Outcome = "approve"
	OutcomeChallenge Outcome = "challenge"
	OutcomeBlock     Outcome = "block"
	OutcomeEscalate  Outcome = "escalate"
)

// Valid reports whether the outcome is one of the four defined tags.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApprove, OutcomeChallenge, OutcomeBlock, OutcomeEscalate:
		return true
	}
	return false
}

// DecisionRecord is produced once by the decision task and then mutated at
// most once more, by the safety layer. After that it is terminal.
type DecisionRecord struct {
	Outcome             Outcome  `json:"outcome"`
	Confidence          float64  `json:"confidence"` // [0,1]
	Signals             []string `json:"signals,omitempty"`
	FraudCitations      []string `json:"fraud_citations,omitempty"`
	LegitimateCitations []string `json:"legitimate_citations,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	OverrideReason      string   `json:"override_reason,omitempty"`
	TaskNames           []string `json:"task_names,omitempty"`
	Overridden          bool     `json:"overridden,omitempty"`
	Degraded            bool     `json:"degraded,omitempty"`
}

// Explanation is the phase-5 record: one customer-facing and one
// audit-facing narrative.
type Explanation struct {
	CustomerNarrative string `json:"customer_narrative"`
	AuditNarrative    string `json:"audit_narrative"`
	Degraded          bool   `json:"degraded,omitempty"`
}

// ClampConfidence bounds a confidence value to [0,1]. Malformed-but-present
// values are salvaged rather than rejected.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampScore bounds a risk score to [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
