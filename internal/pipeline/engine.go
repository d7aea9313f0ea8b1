package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/audit"
	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/evidence"
	"github.com/fyrsmithlabs/verdictd/internal/llm"
	"github.com/fyrsmithlabs/verdictd/internal/review"
	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

// ReporterFactory builds the progress reporter for one run. A nil factory
// disables progress reporting.
type ReporterFactory func(runID string) trace.Reporter

// Engine owns the fixed phase graph and the collaborators the tasks need.
// It is safe for concurrent use; all per-run state lives on the run.
type Engine struct {
	cfg        Config
	logger     *zap.Logger
	generator  llm.Generator
	aggregator *evidence.Aggregator
	store      audit.Store
	queue      review.Queue
	reporters  ReporterFactory
	tracer     oteltrace.Tracer

	// phases is the graph, composed once at construction time.
	phases []Phase
}

// NewEngine composes the phase graph over the given collaborators.
func NewEngine(cfg Config, logger *zap.Logger, generator llm.Generator, providers []evidence.Provider, store audit.Store, queue review.Queue, reporters ReporterFactory) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("review queue is required")
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		aggregator: evidence.NewAggregator(logger, providers,
			evidence.WithProviderTimeout(cfg.ProviderTimeout),
			evidence.WithCorroborationBonus(cfg.CorroborationBonus),
		),
		generator: generator,
		store:     store,
		queue:     queue,
		reporters: reporters,
		tracer:    otel.Tracer(instrumentationName),
	}

	// The graph is fixed: collection fans out, everything after runs in
	// sequence, and the safety overrides sit between decide and explain.
	e.phases = []Phase{
		{Name: "collect", Tasks: []Task{
			e.amountAnomalyTask(),
			e.temporalPatternTask(),
			e.geoDeviceTask(),
			e.policyContextTask(),
		}},
		{Name: "consolidate", Tasks: []Task{e.consolidateTask()}},
		{Name: "debate", Tasks: []Task{
			e.debateTask(decision.PositionFraud),
			e.debateTask(decision.PositionLegitimate),
		}},
		{Name: "decide", Tasks: []Task{e.decideTask()}},
		{Name: "explain", Tasks: []Task{e.explainTask()}},
	}

	return e, nil
}

// run is the per-run execution context.
type run struct {
	*Engine
	recorder *trace.Recorder
}

// Decide executes the full graph for one transaction. It returns a
// ValidationError before phase 1 for malformed input; otherwise it always
// produces a well-formed decision result, degraded as needed, and fails
// only if the audit record cannot be persisted.
func (e *Engine) Decide(ctx context.Context, tx decision.Transaction, profile decision.CustomerProfile) (*decision.RunResult, error) {
	if err := decision.ValidateTransaction(tx); err != nil {
		return nil, err
	}

	state := decision.NewState(tx, profile)

	var reporter trace.Reporter
	if e.reporters != nil {
		reporter = e.reporters(state.RunID())
	}
	r := &run{Engine: e, recorder: trace.NewRecorder(reporter)}

	// The run bound is a backstop above the per-task bounds.
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RunTimeout)
	defer cancel()

	ctx, span := e.tracer.Start(ctx, "pipeline.decide",
		oteltrace.WithAttributes(
			attribute.String("run_id", state.RunID()),
			attribute.String("transaction_id", tx.ID),
		))
	defer span.End()

	for _, phase := range e.phases {
		if err := r.runPhase(ctx, phase, state); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if phase.Name == "decide" {
			r.applySafety(ctx, state)
		}
	}

	result := &decision.RunResult{
		RunID:       state.RunID(),
		Input:       state.Input(),
		Evidence:    state.Evidence(),
		Decision:    state.Decision(),
		Explanation: state.Explanation(),
		Trace:       r.recorder.Entries(),
		StartedAt:   state.StartedAt(),
		CompletedAt: time.Now(),
	}

	outcome := result.Decision.Outcome
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	runCounter.Add(ctx, 1, outcomeAttr(outcome))
	runDuration.Record(ctx, result.CompletedAt.Sub(result.StartedAt).Seconds())

	// All four outcomes converge to persistence; the core does not retry
	// persistence failures.
	if err := e.store.Save(ctx, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("persisting audit record: %w", err)
	}

	if outcome == decision.OutcomeEscalate {
		escalation := review.Escalation{
			RunID:       state.RunID(),
			Transaction: state.Input(),
			Evidence:    state.Evidence(),
			Decision:    state.Decision(),
			SubmittedAt: time.Now(),
		}
		if err := e.queue.Submit(ctx, escalation); err != nil {
			// The decision stands and is already persisted; the queue
			// hand-off is logged for operators to replay.
			e.logger.Error("review queue submission failed",
				zap.String("run_id", state.RunID()),
				zap.Error(err),
			)
		}
	}

	e.logger.Info("run completed",
		zap.String("run_id", state.RunID()),
		zap.String("outcome", string(outcome)),
		zap.Float64("confidence", result.Decision.Confidence),
		zap.String("category", string(result.Evidence.Category)),
		zap.Int("trace_entries", len(result.Trace)),
	)

	return result, nil
}

// applySafety runs the deterministic overrides, unconditionally, before
// the explanation phase may read the decision.
func (r *run) applySafety(ctx context.Context, state *decision.State) {
	record := state.Decision()
	if record == nil {
		// The decide task's fallback always merges a record; reaching
		// here means the phase wiring is broken.
		panic("pipeline: decide phase merged no decision record")
	}

	adjusted := applySafetyOverrides(r.cfg.Safety, record, state.Evidence())
	if adjusted.Overridden {
		overrideCounter.Add(ctx, 1, outcomeAttr(adjusted.Outcome))
		r.logger.Warn("safety override applied",
			zap.String("from", string(record.Outcome)),
			zap.String("to", string(adjusted.Outcome)),
			zap.String("reason", adjusted.OverrideReason),
		)
	}
	if err := state.Override(adjusted); err != nil {
		panic(fmt.Sprintf("pipeline: %v", err))
	}
}
