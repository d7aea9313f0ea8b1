package trace

import (
	"sync"
	"time"
)

// Status is the terminal status of one task execution attempt.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusTimeout  Status = "timeout"
	StatusSkipped  Status = "skipped"
	StatusFallback Status = "fallback"
)

// Entry records one task execution attempt. An entry is created as a
// placeholder when the task starts and finalized exactly once when it
// ends; after finalization it is immutable.
type Entry struct {
	Task          string        `json:"task"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Status        Status        `json:"status"`
	InputSummary  string        `json:"input_summary,omitempty"`
	OutputSummary string        `json:"output_summary,omitempty"`
	Failure       string        `json:"failure,omitempty"`
}

// Event is the progress notification delivered to a Reporter.
type Event struct {
	Type      EventType     `json:"type"`
	Task      string        `json:"task"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
	Status    Status        `json:"status,omitempty"`
}

// EventType distinguishes the two edges of a task execution.
type EventType string

const (
	EventTaskStarted   EventType = "task_started"
	EventTaskCompleted EventType = "task_completed"
)

// Reporter receives task lifecycle events. Implementations must be safe
// for concurrent use and must never block: the recorder calls Report
// inline on the task goroutine.
type Reporter interface {
	Report(event Event)
}

// NopReporter discards all events.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Event) {}

var _ Reporter = NopReporter{}

// Recorder accumulates trace entries for one run. The entry list is
// append-only and safe for concurrent append during parallel phases.
type Recorder struct {
	mu       sync.Mutex
	entries  []Entry
	reporter Reporter
}

// NewRecorder creates a recorder. A nil reporter disables progress events.
func NewRecorder(reporter Reporter) *Recorder {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Recorder{reporter: reporter}
}

// Begin creates the placeholder entry for a task and notifies the
// reporter that the task started.
func (r *Recorder) Begin(task string) Entry {
	entry := Entry{
		Task:      task,
		StartedAt: time.Now(),
	}
	r.reporter.Report(Event{
		Type:      EventTaskStarted,
		Task:      task,
		Timestamp: entry.StartedAt,
	})
	return entry
}

// Finish finalizes an entry, appends it to the run's trace list, and
// notifies the reporter. Every Begin is paired with exactly one Finish.
func (r *Recorder) Finish(entry Entry, status Status, failure string) Entry {
	entry.Duration = time.Since(entry.StartedAt)
	entry.Status = status
	entry.Failure = failure

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	r.reporter.Report(Event{
		Type:      EventTaskCompleted,
		Task:      entry.Task,
		Timestamp: time.Now(),
		Duration:  entry.Duration,
		Status:    status,
	})
	return entry
}

// Entries returns a copy of the accumulated entries in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of finalized entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
