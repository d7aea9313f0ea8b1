package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

func sampleResult(runID string) *decision.RunResult {
	return &decision.RunResult{
		RunID: runID,
		Input: decision.Transaction{ID: "tx-1", CustomerID: "cust-1", Amount: 100, Currency: "EUR"},
		Evidence: &decision.EvidenceReport{
			CompositeScore: 41.75,
			Category:       decision.RiskMedium,
		},
		Decision: &decision.DecisionRecord{
			Outcome:    decision.OutcomeChallenge,
			Confidence: 0.65,
		},
		StartedAt:   time.Now().Add(-time.Second),
		CompletedAt: time.Now(),
	}
}

func TestMemoryStore_SavePreservesArrivalOrder(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save(context.Background(), sampleResult("run-1")))
	require.NoError(t, store.Save(context.Background(), sampleResult("run-2")))

	results := store.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "run-1", results[0].RunID)
	assert.Equal(t, "run-2", results[1].RunID)
}

func TestFileStore_AppendsOneJSONLinePerRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store := NewFileStore(path)

	require.NoError(t, store.Save(context.Background(), sampleResult("run-1")))
	require.NoError(t, store.Save(context.Background(), sampleResult("run-2")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var runIDs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var result decision.RunResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &result))
		runIDs = append(runIDs, result.RunID)
		assert.Equal(t, decision.OutcomeChallenge, result.Decision.Outcome)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"run-1", "run-2"}, runIDs)
}

func TestFileStore_CreatesFileWithOwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store := NewFileStore(path)

	require.NoError(t, store.Save(context.Background(), sampleResult("run-1")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_UnwritablePathSurfacesError(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing-dir", "audit.jsonl"))

	err := store.Save(context.Background(), sampleResult("run-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open audit log")
}
