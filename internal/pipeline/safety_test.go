package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

func TestApplySafetyOverrides_CriticalRiskForcesBlock(t *testing.T) {
	cfg := NewDefaultConfig().Safety

	record := &decision.DecisionRecord{Outcome: decision.OutcomeApprove, Confidence: 0.95}
	evidence := &decision.EvidenceReport{CompositeScore: 90, Category: decision.RiskCritical}

	out := applySafetyOverrides(cfg, record, evidence)

	assert.Equal(t, decision.OutcomeBlock, out.Outcome)
	assert.True(t, out.Overridden)
	assert.NotEmpty(t, out.OverrideReason)
	// Confidence already above the floor stays put.
	assert.Equal(t, 0.95, out.Confidence)

	// Input record untouched.
	assert.Equal(t, decision.OutcomeApprove, record.Outcome)
	assert.False(t, record.Overridden)
}

func TestApplySafetyOverrides_CriticalBlockRaisesConfidenceFloor(t *testing.T) {
	cfg := NewDefaultConfig().Safety

	record := &decision.DecisionRecord{Outcome: decision.OutcomeBlock, Confidence: 0.3}
	evidence := &decision.EvidenceReport{CompositeScore: 90}

	out := applySafetyOverrides(cfg, record, evidence)

	// Already a block: no outcome change, but the confidence floor holds
	// so rule two cannot immediately unwind the block into an escalation.
	assert.Equal(t, decision.OutcomeBlock, out.Outcome)
	assert.Equal(t, cfg.BlockConfidenceFloor, out.Confidence)
	assert.True(t, out.Overridden)
	// An override in the audit record always states why.
	assert.Contains(t, out.OverrideReason, "floor")
}

func TestApplySafetyOverrides_LowConfidenceForcesEscalation(t *testing.T) {
	cfg := NewDefaultConfig().Safety

	record := &decision.DecisionRecord{Outcome: decision.OutcomeApprove, Confidence: 0.35}
	evidence := &decision.EvidenceReport{CompositeScore: 10}

	out := applySafetyOverrides(cfg, record, evidence)

	assert.Equal(t, decision.OutcomeEscalate, out.Outcome)
	assert.True(t, out.Overridden)
	assert.Contains(t, out.OverrideReason, "below minimum")
}

func TestApplySafetyOverrides_ConfidentDecisionPassesThrough(t *testing.T) {
	cfg := NewDefaultConfig().Safety

	record := &decision.DecisionRecord{Outcome: decision.OutcomeChallenge, Confidence: 0.7}
	evidence := &decision.EvidenceReport{CompositeScore: 45}

	out := applySafetyOverrides(cfg, record, evidence)

	assert.Equal(t, decision.OutcomeChallenge, out.Outcome)
	assert.Equal(t, 0.7, out.Confidence)
	assert.False(t, out.Overridden)
	assert.Empty(t, out.OverrideReason)
}

func TestApplySafetyOverrides_RulesComposeInOrder(t *testing.T) {
	// Exactly at the threshold is not above it: no block, but the low
	// confidence still escalates.
	cfg := NewDefaultConfig().Safety

	record := &decision.DecisionRecord{Outcome: decision.OutcomeApprove, Confidence: 0.2}
	evidence := &decision.EvidenceReport{CompositeScore: cfg.CriticalScore}

	out := applySafetyOverrides(cfg, record, evidence)

	assert.Equal(t, decision.OutcomeEscalate, out.Outcome)
	assert.True(t, out.Overridden)
}
