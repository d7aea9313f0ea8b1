package decision

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

// Delta is the partial-state update returned by one task. Each task owns
// disjoint fields, so deltas from a parallel phase merge in any order
// without loss. Exactly one field group is set per delta.
type Delta struct {
	Signal      *SignalResult
	Evidence    *EvidenceReport
	Argument    *DebateArgument
	Decision    *DecisionRecord
	Explanation *Explanation
}

// State is the blackboard threaded through all phases of one run. Fields
// are unexported: tasks read through getters and return Deltas; only the
// pipeline engine calls Apply. A field, once written, is immutable for the
// remainder of the run.
type State struct {
	runID     string
	startedAt time.Time

	input   Transaction
	profile CustomerProfile

	signals     map[SignalKind]*SignalResult
	evidence    *EvidenceReport
	fraudCase   *DebateArgument
	legitCase   *DebateArgument
	decision    *DecisionRecord
	explanation *Explanation
}

// NewState creates the empty state for one run. Identical input always
// starts from empty state; nothing is shared or cached across runs.
func NewState(tx Transaction, profile CustomerProfile) *State {
	return &State{
		runID:     uuid.New().String(),
		startedAt: time.Now(),
		input:     tx,
		profile:   profile,
		signals:   make(map[SignalKind]*SignalResult),
	}
}

// RunID returns the unique identifier of this run.
func (s *State) RunID() string { return s.runID }

// StartedAt returns when the run began.
func (s *State) StartedAt() time.Time { return s.startedAt }

// Input returns the immutable input transaction.
func (s *State) Input() Transaction { return s.input }

// Profile returns the read-only customer profile.
func (s *State) Profile() CustomerProfile { return s.profile }

// Signal returns the phase-1 result for a kind, or the schema-valid empty
// signal if that collector never merged. Later phases never observe nil.
func (s *State) Signal(kind SignalKind) *SignalResult {
	if r, ok := s.signals[kind]; ok {
		return r
	}
	return EmptySignal(kind)
}

// Signals returns all merged phase-1 results keyed by kind.
func (s *State) Signals() map[SignalKind]*SignalResult {
	out := make(map[SignalKind]*SignalResult, len(s.signals))
	for k, v := range s.signals {
		out[k] = v
	}
	return out
}

// Evidence returns the consolidated phase-2 report, or the empty report if
// consolidation never merged.
func (s *State) Evidence() *EvidenceReport {
	if s.evidence == nil {
		return EmptyEvidenceReport()
	}
	return s.evidence
}

// FraudCase returns the phase-3 argument for the fraud position.
func (s *State) FraudCase() *DebateArgument {
	if s.fraudCase == nil {
		return EmptyDebateArgument(PositionFraud)
	}
	return s.fraudCase
}

// LegitimateCase returns the phase-3 argument for the legitimate position.
func (s *State) LegitimateCase() *DebateArgument {
	if s.legitCase == nil {
		return EmptyDebateArgument(PositionLegitimate)
	}
	return s.legitCase
}

// Decision returns the decision record, nil until phase 4 has merged.
func (s *State) Decision() *DecisionRecord { return s.decision }

// Explanation returns the phase-5 record, nil until phase 5 has merged.
func (s *State) Explanation() *Explanation { return s.explanation }

// Apply merges one task's delta into the state. Only the pipeline engine
// calls this, strictly between phases, so there is no concurrent mutation.
// Writing a field that is already set violates the write-once contract.
func (s *State) Apply(delta Delta) error {
	switch {
	case delta.Signal != nil:
		if _, exists := s.signals[delta.Signal.Kind]; exists {
			return fmt.Errorf("signal %q: %w", delta.Signal.Kind, ErrFieldRewritten)
		}
		s.signals[delta.Signal.Kind] = delta.Signal

	case delta.Evidence != nil:
		if s.evidence != nil {
			return fmt.Errorf("evidence report: %w", ErrFieldRewritten)
		}
		s.evidence = delta.Evidence

	case delta.Argument != nil:
		switch delta.Argument.Position {
		case PositionFraud:
			if s.fraudCase != nil {
				return fmt.Errorf("fraud argument: %w", ErrFieldRewritten)
			}
			s.fraudCase = delta.Argument
		case PositionLegitimate:
			if s.legitCase != nil {
				return fmt.Errorf("legitimate argument: %w", ErrFieldRewritten)
			}
			s.legitCase = delta.Argument
		default:
			return fmt.Errorf("unknown debate position %q", delta.Argument.Position)
		}

	case delta.Decision != nil:
		if s.decision != nil {
			return fmt.Errorf("decision record: %w", ErrFieldRewritten)
		}
		s.decision = delta.Decision

	case delta.Explanation != nil:
		if s.explanation != nil {
			return fmt.Errorf("explanation: %w", ErrFieldRewritten)
		}
		s.explanation = delta.Explanation
	}
	return nil
}

// Override replaces the decision record with its safety-adjusted form.
// This is the single sanctioned second write of the decision field; the
// record is terminal afterwards.
func (s *State) Override(record *DecisionRecord) error {
	if s.decision == nil {
		return fmt.Errorf("override before decision merged")
	}
	s.decision = record
	return nil
}

// RunResult is the finalized outcome of one run, handed to persistence.
type RunResult struct {
	RunID       string          `json:"run_id"`
	Input       Transaction     `json:"input"`
	Evidence    *EvidenceReport `json:"evidence"`
	Decision    *DecisionRecord `json:"decision"`
	Explanation *Explanation    `json:"explanation"`
	Trace       []trace.Entry   `json:"trace"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}
