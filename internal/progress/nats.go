// Package progress streams task lifecycle events to external consumers
// over NATS. Delivery is best-effort: publish failures are logged and
// dropped, never surfaced to the run.
package progress

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

// Config holds NATS reporter configuration.
type Config struct {
	URL string `koanf:"url"`
	// SubjectPrefix is prepended to every subject, default "verdictd".
	SubjectPrefix string `koanf:"subject_prefix"`
}

// Publisher is the slice of the NATS connection the reporter needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Reporter publishes one event per task edge to
// {prefix}.runs.{run_id}.{task_started|task_completed}.
type Reporter struct {
	publisher Publisher
	prefix    string
	runID     string
	logger    *zap.Logger
}

// Connect dials NATS and returns a reporter factory bound to the
// connection.
func Connect(cfg Config, logger *zap.Logger) (*nats.Conn, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	nc, err := nats.Connect(cfg.URL, nats.Name("verdictd"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return nc, nil
}

// NewReporter creates a reporter for one run.
func NewReporter(publisher Publisher, cfg Config, runID string, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "verdictd"
	}
	return &Reporter{
		publisher: publisher,
		prefix:    prefix,
		runID:     runID,
		logger:    logger,
	}
}

// Report implements trace.Reporter. NATS publishes are fire-and-forget
// buffered writes, so this never blocks the task goroutine; any error is
// logged and discarded.
func (r *Reporter) Report(event trace.Event) {
	subject := fmt.Sprintf("%s.runs.%s.%s", r.prefix, r.runID, event.Type)
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("marshal progress event", zap.Error(err))
		return
	}
	if err := r.publisher.Publish(subject, data); err != nil {
		r.logger.Warn("publish progress event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

var _ trace.Reporter = (*Reporter)(nil)
