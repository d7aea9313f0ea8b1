package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

func stateWithSignals(t *testing.T, signals ...*decision.SignalResult) *decision.State {
	t.Helper()
	state := decision.NewState(decision.Transaction{ID: "tx-1"}, decision.CustomerProfile{})
	for _, signal := range signals {
		require.NoError(t, state.Apply(decision.Delta{Signal: signal}))
	}
	return state
}

func TestConsolidate_WeightedComposite(t *testing.T) {
	cfg := NewDefaultConfig().Consolidation

	state := stateWithSignals(t,
		&decision.SignalResult{Kind: decision.SignalAmountAnomaly, Score: 65, Factors: []string{"elevated_amount"}},
		&decision.SignalResult{Kind: decision.SignalTemporalPattern, Score: 60, Factors: []string{"unusual_hour"}},
		&decision.SignalResult{Kind: decision.SignalGeoDevice, Score: 5},
		&decision.SignalResult{Kind: decision.SignalPolicyContext, Score: 5},
	)

	report := consolidate(cfg, state)

	// .35*65 + .15*60 + .30*5 + .20*5 = 34.25, plus one 7.5 bonus for the
	// second high-risk signal.
	assert.InDelta(t, 41.75, report.CompositeScore, 1e-9)
	assert.Equal(t, decision.RiskMedium, report.Category)
	assert.False(t, report.Degraded)
	assert.Len(t, report.SignalScores, 4)
	assert.Equal(t, []string{"elevated_amount", "unusual_hour"}, report.RiskFactors)
}

func TestConsolidate_RenormalizesOverSurvivingSignals(t *testing.T) {
	cfg := NewDefaultConfig().Consolidation

	// Only the amount signal survived; its score becomes the composite.
	state := stateWithSignals(t,
		&decision.SignalResult{Kind: decision.SignalAmountAnomaly, Score: 45},
	)

	report := consolidate(cfg, state)

	assert.InDelta(t, 45, report.CompositeScore, 1e-9)
	assert.Equal(t, decision.RiskMedium, report.Category)
	assert.Len(t, report.SignalScores, 1)
	assert.NotContains(t, report.SignalScores, decision.SignalPolicyContext)
}

func TestConsolidate_AllDegradedYieldsDegradedReport(t *testing.T) {
	cfg := NewDefaultConfig().Consolidation
	state := stateWithSignals(t) // nothing merged

	report := consolidate(cfg, state)

	assert.True(t, report.Degraded)
	assert.Zero(t, report.CompositeScore)
	assert.Equal(t, decision.RiskLow, report.Category)
	assert.Empty(t, report.SignalScores)
}

func TestConsolidate_BonusClampsAtCeiling(t *testing.T) {
	cfg := NewDefaultConfig().Consolidation

	state := stateWithSignals(t,
		&decision.SignalResult{Kind: decision.SignalAmountAnomaly, Score: 100},
		&decision.SignalResult{Kind: decision.SignalTemporalPattern, Score: 100},
		&decision.SignalResult{Kind: decision.SignalGeoDevice, Score: 100},
		&decision.SignalResult{Kind: decision.SignalPolicyContext, Score: 100},
	)

	report := consolidate(cfg, state)

	assert.Equal(t, 100.0, report.CompositeScore)
	assert.Equal(t, decision.RiskCritical, report.Category)
}

func TestCategorize_BucketEdges(t *testing.T) {
	cfg := NewDefaultConfig().Consolidation

	tests := []struct {
		score float64
		want  decision.RiskCategory
	}{
		{score: 0, want: decision.RiskLow},
		{score: 29.9, want: decision.RiskLow},
		{score: 30, want: decision.RiskMedium},
		{score: 59.9, want: decision.RiskMedium},
		{score: 60, want: decision.RiskHigh},
		{score: 85, want: decision.RiskHigh},
		{score: 85.1, want: decision.RiskCritical},
		{score: 100, want: decision.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorize(cfg, tt.score), "score %.1f", tt.score)
	}
}
