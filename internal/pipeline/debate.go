package pipeline

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/structured"
)

// debateSchema is the record each advocate must produce.
type debateSchema struct {
	Argument   string   `json:"argument"`
	Confidence float64  `json:"confidence"`
	Citations  []string `json:"citations"`
}

func (s *debateSchema) Normalize() {
	s.Confidence = decision.ClampConfidence(s.Confidence)
}

// debateTask builds one side of the adversarial pair. Both sides read the
// same consolidated evidence; neither reads the other's argument.
func (e *Engine) debateTask(position decision.DebatePosition) Task {
	return Task{
		Name: "debate_" + string(position),
		Run: func(ctx context.Context, state *decision.State) (Result, error) {
			raw, err := e.generator.Invoke(ctx, debatePrompt(position, state))
			if err != nil {
				return Result{}, fmt.Errorf("debate generation: %w", err)
			}

			parsed, tag := structured.Decode[debateSchema](raw)
			if tag == structured.TagDegraded || parsed.Argument == "" {
				return Result{
					Delta:    decision.Delta{Argument: decision.EmptyDebateArgument(position)},
					Degraded: true,
					Summary:  "unparseable argument, substituted empty",
				}, nil
			}

			return Result{
				Delta: decision.Delta{Argument: &decision.DebateArgument{
					Position:   position,
					Argument:   parsed.Argument,
					Confidence: parsed.Confidence,
					Citations:  parsed.Citations,
				}},
				Summary: fmt.Sprintf("confidence=%.2f citations=%d", parsed.Confidence, len(parsed.Citations)),
			}, nil
		},
		Fallback: func(state *decision.State) decision.Delta {
			return decision.Delta{Argument: decision.EmptyDebateArgument(position)}
		},
	}
}
