package pipeline

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
	"github.com/fyrsmithlabs/verdictd/internal/trace"
)

const instrumentationName = "github.com/fyrsmithlabs/verdictd/internal/pipeline"

var (
	runCounter      metric.Int64Counter
	runDuration     metric.Float64Histogram
	taskCounter     metric.Int64Counter
	taskDuration    metric.Float64Histogram
	overrideCounter metric.Int64Counter
)

// initMetrics initializes OpenTelemetry metrics for the pipeline.
// Called once during package initialization.
func initMetrics() {
	meter := otel.Meter(instrumentationName)

	var err error

	runCounter, err = meter.Int64Counter(
		"verdictd.pipeline.runs",
		metric.WithDescription("Total number of pipeline runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create run counter: %v", err))
	}

	runDuration, err = meter.Float64Histogram(
		"verdictd.pipeline.run.duration",
		metric.WithDescription("Duration of complete pipeline runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create run duration: %v", err))
	}

	taskCounter, err = meter.Int64Counter(
		"verdictd.pipeline.tasks",
		metric.WithDescription("Total number of task executions by status"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create task counter: %v", err))
	}

	taskDuration, err = meter.Float64Histogram(
		"verdictd.pipeline.task.duration",
		metric.WithDescription("Duration of task executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create task duration: %v", err))
	}

	overrideCounter, err = meter.Int64Counter(
		"verdictd.pipeline.safety_overrides",
		metric.WithDescription("Number of decisions changed by the safety layer"),
		metric.WithUnit("{override}"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create override counter: %v", err))
	}
}

func init() {
	initMetrics()
}

func outcomeAttr(outcome decision.Outcome) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", string(outcome)))
}

func taskAttr(task string) metric.RecordOption {
	return metric.WithAttributes(attribute.String("task", task))
}

func statusAttr(task string, status trace.Status) metric.AddOption {
	return metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("status", string(status)),
	)
}
