package progress

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestReporter_Report_SubjectCarriesRunAndEdge(t *testing.T) {
	publisher := &fakePublisher{}
	reporter := NewReporter(publisher, Config{SubjectPrefix: "fraud"}, "run-42", zap.NewNop())

	reporter.Report(trace.Event{
		Type:      trace.EventTaskStarted,
		Task:      "amount_anomaly",
		Timestamp: time.Now(),
	})
	reporter.Report(trace.Event{
		Type:     trace.EventTaskCompleted,
		Task:     "amount_anomaly",
		Status:   trace.StatusSuccess,
		Duration: 12 * time.Millisecond,
	})

	require.Len(t, publisher.subjects, 2)
	assert.Equal(t, "fraud.runs.run-42.task_started", publisher.subjects[0])
	assert.Equal(t, "fraud.runs.run-42.task_completed", publisher.subjects[1])

	var event trace.Event
	require.NoError(t, json.Unmarshal(publisher.payloads[1], &event))
	assert.Equal(t, "amount_anomaly", event.Task)
	assert.Equal(t, trace.StatusSuccess, event.Status)
}

func TestReporter_Report_DefaultPrefix(t *testing.T) {
	publisher := &fakePublisher{}
	reporter := NewReporter(publisher, Config{}, "run-1", nil)

	reporter.Report(trace.Event{Type: trace.EventTaskStarted, Task: "decide"})

	require.Len(t, publisher.subjects, 1)
	assert.Equal(t, "verdictd.runs.run-1.task_started", publisher.subjects[0])
}

func TestReporter_Report_PublishFailureIsDropped(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("slow consumer")}
	reporter := NewReporter(publisher, Config{}, "run-1", zap.NewNop())

	assert.NotPanics(t, func() {
		reporter.Report(trace.Event{Type: trace.EventTaskStarted, Task: "decide"})
	})
}
