// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/metacrew/pkg/errors"
)

// WorkflowMetrics tracks collaboration runs and their failures.
type WorkflowMetrics struct {
	// solveCounter counts SolveTask calls by status
	solveCounter metric.Int64Counter

	// solveDuration records SolveTask latency in milliseconds
	solveDuration metric.Float64Histogram

	// tasksCounter counts task descriptors submitted to an engine
	tasksCounter metric.Int64Counter

	// errorCounter counts failed runs by error code
	errorCounter metric.Int64Counter
}

// NewWorkflowMetrics creates the workflow instruments on the global meter
// provider.
func NewWorkflowMetrics() (*WorkflowMetrics, error) {
	return NewWorkflowMetricsWithMeter(otel.Meter(TracerWorkflow))
}

// NewWorkflowMetricsWithMeter creates the workflow instruments on meter.
func NewWorkflowMetricsWithMeter(meter metric.Meter) (*WorkflowMetrics, error) {
	solveCounter, err := meter.Int64Counter(
		"metacrew.solve.total",
		metric.WithDescription("Collaboration runs by status"),
	)
	if err != nil {
		return nil, err
	}

	solveDuration, err := meter.Float64Histogram(
		"metacrew.solve.duration_ms",
		metric.WithDescription("Collaboration run latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	tasksCounter, err := meter.Int64Counter(
		"metacrew.tasks.submitted",
		metric.WithDescription("Task descriptors submitted to an execution engine"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"metacrew.errors.total",
		metric.WithDescription("Failed collaboration runs by error code"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkflowMetrics{
		solveCounter:  solveCounter,
		solveDuration: solveDuration,
		tasksCounter:  tasksCounter,
		errorCounter:  errorCounter,
	}, nil
}

// RecordSolve records one finished SolveTask call.
func (wm *WorkflowMetrics) RecordSolve(ctx context.Context, task, status string, d time.Duration) {
	if wm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrWorkflowTask, task),
		attribute.String(AttrWorkflowStatus, status),
	)
	wm.solveCounter.Add(ctx, 1, attrs)
	wm.solveDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

// RecordSubmitted adds n to the submitted task counter.
func (wm *WorkflowMetrics) RecordSubmitted(ctx context.Context, n int) {
	if wm == nil || n <= 0 {
		return
	}
	wm.tasksCounter.Add(ctx, int64(n))
}

// RecordError increments the error counter for err's code.
func (wm *WorkflowMetrics) RecordError(ctx context.Context, err error) {
	if wm == nil || err == nil {
		return
	}
	ce := errors.As(err)
	wm.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrErrorCode, string(ce.Code)),
			attribute.String("recoverable", ce.RecoverableString()),
		),
	)
}
