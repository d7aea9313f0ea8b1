package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// Phase is one stage of the fixed graph: a named group of tasks executed
// sequentially (one task) or as a parallel fan-out/fan-in (several).
type Phase struct {
	Name  string
	Tasks []Task
}

// runPhase executes one phase and merges every task's delta into the
// state. A parallel phase is a full barrier: all tasks return (success or
// degraded) before anything merges, and since each task owns disjoint
// fields, merge order is irrelevant. A phase never partially merges.
func (r *run) runPhase(ctx context.Context, phase Phase, state *decision.State) error {
	deltas := make([]decision.Delta, len(phase.Tasks))

	if len(phase.Tasks) == 1 {
		deltas[0] = r.execute(ctx, phase.Tasks[0], state)
	} else {
		var g errgroup.Group
		for i, task := range phase.Tasks {
			g.Go(func() error {
				deltas[i] = r.execute(ctx, task, state)
				return nil
			})
		}
		// Wrapped tasks never error; Wait is the fan-in barrier.
		_ = g.Wait()
	}

	for _, delta := range deltas {
		if err := state.Apply(delta); err != nil {
			// Only a wiring bug can reach this: two tasks writing the
			// same field.
			return fmt.Errorf("phase %s: %w", phase.Name, err)
		}
	}
	return nil
}
