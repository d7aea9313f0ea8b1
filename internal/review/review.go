// Package review is the hand-off point to the human review queue. A run
// whose final outcome is escalate submits exactly one record here; the
// eventual human resolution feeds external auditing and never re-enters
// the run that produced it.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// Escalation carries the decision plus enough context for a reviewer to
// resolve it later.
type Escalation struct {
	RunID       string                   `json:"run_id"`
	Transaction decision.Transaction     `json:"transaction"`
	Evidence    *decision.EvidenceReport `json:"evidence"`
	Decision    *decision.DecisionRecord `json:"decision"`
	SubmittedAt time.Time                `json:"submitted_at"`
}

// Queue receives escalations.
type Queue interface {
	Submit(ctx context.Context, escalation Escalation) error
}

// MemoryQueue holds escalations in memory.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []Escalation
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Submit implements Queue.
func (q *MemoryQueue) Submit(ctx context.Context, escalation Escalation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, escalation)
	return nil
}

// Pending returns the submitted escalations in arrival order.
func (q *MemoryQueue) Pending() []Escalation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Escalation, len(q.pending))
	copy(out, q.pending)
	return out
}

// Publisher is the slice of a messaging connection the queue needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSQueue publishes escalations to a messaging subject for the review
// tooling to consume. Unlike progress events, a lost escalation matters,
// so Submit surfaces publish errors to the caller.
type NATSQueue struct {
	publisher Publisher
	subject   string
}

// NewNATSQueue creates a queue publishing to subject.
func NewNATSQueue(publisher Publisher, subject string) *NATSQueue {
	if subject == "" {
		subject = "verdictd.review.escalations"
	}
	return &NATSQueue{publisher: publisher, subject: subject}
}

// Submit implements Queue.
func (q *NATSQueue) Submit(ctx context.Context, escalation Escalation) error {
	data, err := json.Marshal(escalation)
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}
	if err := q.publisher.Publish(q.subject, data); err != nil {
		return fmt.Errorf("publish escalation: %w", err)
	}
	return nil
}

var (
	_ Queue = (*MemoryQueue)(nil)
	_ Queue = (*NATSQueue)(nil)
)
