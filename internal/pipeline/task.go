package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

// Result is what a task's body returns on completion.
type Result struct {
	Delta decision.Delta

	// Degraded marks a completion whose content is a substituted safe
	// default (e.g. an unparseable generation). It records as trace
	// status fallback rather than success.
	Degraded bool

	// Summary is an optional output summary for the trace entry.
	Summary string
}

// Task is one unit of work in a phase. Fallback must return a
// schema-valid update for the task's owned fields, computed without any
// external dependency, so downstream readers never see a missing record.
type Task struct {
	Name     string
	Run      func(ctx context.Context, state *decision.State) (Result, error)
	Fallback func(state *decision.State) decision.Delta

	// Timeout overrides the engine's task timeout when positive.
	Timeout time.Duration
}

// execute runs one task to a guaranteed conclusion within its deadline
// plus negligible overhead. Whatever happens inside the task body
// (error, panic, deadline, cancellation), the caller receives a
// schema-valid delta, and exactly one trace entry is appended.
func (r *run) execute(ctx context.Context, task Task, state *decision.State) decision.Delta {
	entry := r.recorder.Begin(task.Name)
	entry.InputSummary = summarizeInput(state)

	ctx, span := r.tracer.Start(ctx, "task."+task.Name)
	defer span.End()

	// A run cancelled before this task started still gets its entry: the
	// trace is a complete account of what was attempted.
	if err := ctx.Err(); err != nil {
		r.recorder.Finish(entry, trace.StatusSkipped, err.Error())
		span.SetAttributes(attribute.String("task.status", string(trace.StatusSkipped)))
		return task.Fallback(state)
	}

	timeout := task.Timeout
	if timeout <= 0 {
		timeout = r.cfg.TaskTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		result, err := task.Run(tctx, state)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			r.logger.Warn("task failed",
				zap.String("task", task.Name),
				zap.Error(out.err),
			)
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
			r.recorder.Finish(entry, trace.StatusError, out.err.Error())
			taskCounter.Add(ctx, 1, statusAttr(task.Name, trace.StatusError))
			return task.Fallback(state)
		}

		status := trace.StatusSuccess
		if out.result.Degraded {
			status = trace.StatusFallback
		}
		entry.OutputSummary = out.result.Summary
		finalized := r.recorder.Finish(entry, status, "")
		span.SetAttributes(attribute.String("task.status", string(status)))
		taskCounter.Add(ctx, 1, statusAttr(task.Name, status))
		taskDuration.Record(ctx, finalized.Duration.Seconds(), taskAttr(task.Name))
		return out.result.Delta

	case <-tctx.Done():
		// The body is abandoned to its cancelled context; we return now
		// so the wrapper's own bound holds.
		status := trace.StatusTimeout
		if !errors.Is(tctx.Err(), context.DeadlineExceeded) {
			status = trace.StatusSkipped
		}
		r.logger.Warn("task deadline exceeded",
			zap.String("task", task.Name),
			zap.Duration("timeout", timeout),
		)
		span.SetStatus(codes.Error, tctx.Err().Error())
		r.recorder.Finish(entry, status, tctx.Err().Error())
		taskCounter.Add(ctx, 1, statusAttr(task.Name, status))
		return task.Fallback(state)
	}
}

// summarizeInput captures a compact input digest for the trace.
func summarizeInput(state *decision.State) string {
	tx := state.Input()
	return fmt.Sprintf("tx=%s amount=%.2f %s country=%s", tx.ID, tx.Amount, tx.Currency, tx.Country)
}
