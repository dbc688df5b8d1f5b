// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow assembles role agents and a coordinator into a
// collaborative workflow that builds one task per role and submits the
// batch to an execution engine.
//
// SolveTask never returns an error: every failure is reported as a
// CollaborationResult with status error.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/crew"
	"github.com/jllopis/metacrew/pkg/errors"
	"github.com/jllopis/metacrew/pkg/store"
	"github.com/jllopis/metacrew/pkg/telemetry"
)

// Params is the shared parameter set of a SolveTask call.
type Params = agent.Params

// Float returns a pointer to v, for the optional Params fields.
func Float(v float64) *float64 { return agent.Float(v) }

// Workflow orchestrates role agents under a coordinator.
type Workflow struct {
	coordinator *agent.Coordinator
	builders    map[core.RoleKind]agent.TaskBuilder
	engine      crew.Engine
	metrics     MetricsSource
	store       store.ResultStore
	logger      *slog.Logger
	process     crew.ProcessType
	verbose     bool
	tracer      trace.Tracer
	instruments *telemetry.WorkflowMetrics
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithEngine sets the execution engine. The default is a crew.LocalEngine.
func WithEngine(e crew.Engine) Option {
	return func(w *Workflow) {
		if e != nil {
			w.engine = e
		}
	}
}

// WithMetrics sets the source of success metrics.
func WithMetrics(m MetricsSource) Option {
	return func(w *Workflow) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithStore records every result in s.
func WithStore(s store.ResultStore) Option {
	return func(w *Workflow) { w.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithProcess sets the engine process. The default is hierarchical.
func WithProcess(p crew.ProcessType) Option {
	return func(w *Workflow) {
		if p != "" {
			w.process = p
		}
	}
}

// WithVerbose asks the engine for verbose execution.
func WithVerbose(v bool) Option {
	return func(w *Workflow) { w.verbose = v }
}

// WithInstruments records run metrics on m.
func WithInstruments(m *telemetry.WorkflowMetrics) Option {
	return func(w *Workflow) { w.instruments = m }
}

// New creates a workflow. A nil coordinator selects the default
// coordinator and nil agents select one default agent per role. At most
// one agent per kind is allowed, coordinators are not accepted as role
// agents, and role names must be unique.
func New(coordinator *agent.Coordinator, agents []agent.RoleAgent, opts ...Option) (*Workflow, error) {
	if coordinator == nil {
		c, err := agent.NewCoordinator()
		if err != nil {
			return nil, err
		}
		coordinator = c
	}
	if agents == nil {
		agents = agent.DefaultAgents()
	}

	names := map[string]bool{coordinator.Role().Name: true}
	builders := make(map[core.RoleKind]agent.TaskBuilder, len(agents))
	for i, a := range agents {
		if a == nil {
			return nil, errors.Construction(fmt.Sprintf("agent %d is nil", i), nil)
		}
		kind := a.Kind()
		if kind == core.RoleCoordinator {
			return nil, errors.Construction("coordinator must be passed separately", nil).
				WithContext("name", a.Role().Name)
		}
		b, ok := a.(agent.TaskBuilder)
		if !ok {
			return nil, errors.Construction(fmt.Sprintf("agent %q cannot build tasks", a.Role().Name), nil).
				WithContext("kind", string(kind))
		}
		if _, dup := builders[kind]; dup {
			return nil, errors.Construction(fmt.Sprintf("duplicate agent for role %s", kind), nil).
				WithContext("kind", string(kind))
		}
		name := a.Role().Name
		if names[name] {
			return nil, errors.Construction(fmt.Sprintf("duplicate role name %q", name), nil)
		}
		names[name] = true
		builders[kind] = b
	}

	w := &Workflow{
		coordinator: coordinator,
		builders:    builders,
		metrics:     DefaultMetrics,
		logger:      slog.Default(),
		process:     crew.ProcessHierarchical,
		tracer:      otel.Tracer(telemetry.TracerWorkflow),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.engine == nil {
		w.engine = crew.NewLocalEngine(crew.WithEngineLogger(w.logger))
	}
	return w, nil
}

// Coordinator returns the workflow coordinator.
func (w *Workflow) Coordinator() *agent.Coordinator { return w.coordinator }

// Agents returns the role agents in dispatch order.
func (w *Workflow) Agents() []agent.RoleAgent {
	out := make([]agent.RoleAgent, 0, len(w.builders))
	for _, kind := range core.DispatchOrder() {
		if b, ok := w.builders[kind]; ok {
			out = append(out, b)
		}
	}
	return out
}

// BuildTasks builds one task per present role agent in dispatch order,
// followed by the coordination task.
func (w *Workflow) BuildTasks(taskName, mode string, p Params) ([]*core.TaskDescriptor, error) {
	tasks := make([]*core.TaskDescriptor, 0, len(w.builders)+1)
	for _, kind := range core.DispatchOrder() {
		b, ok := w.builders[kind]
		if !ok {
			continue
		}
		td, err := b.TaskFor(taskName, p)
		if err != nil {
			return nil, agent.WrapBuildError(err, kind)
		}
		tasks = append(tasks, td)
	}
	tasks = append(tasks, w.coordinator.BuildCoordinationTask(tasks, mode))
	return tasks, nil
}

// SolveTask builds the task batch for taskName and submits it to the
// engine with the coordinator as manager. It always returns a result.
func (w *Workflow) SolveTask(ctx context.Context, taskName, mode string, p Params) (res CollaborationResult) {
	if mode == "" {
		mode = agent.DefaultMode
	}
	start := time.Now()
	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := w.tracer.Start(ctx, "Workflow.SolveTask",
		trace.WithAttributes(telemetry.WorkflowAttributes(runID, taskName, mode, string(w.process))...),
	)
	defer span.End()

	res = CollaborationResult{
		RunID:     runID,
		TaskName:  taskName,
		Mode:      mode,
		StartedAt: start.UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			res = failed(res, errors.New(errors.CodeUnrecognized, fmt.Sprintf("execution engine panicked: %v", r), nil))
		}
		res.Duration = time.Since(start)
		w.finish(ctx, span, res)
	}()

	w.logger.InfoContext(ctx, "workflow.solve.start",
		slog.String("run_id", runID),
		slog.String("task", taskName),
		slog.String("mode", mode),
	)

	tasks, err := w.BuildTasks(taskName, mode, p)
	if err != nil {
		return failed(res, err)
	}
	res.TaskCount = len(tasks)
	w.instruments.RecordSubmitted(ctx, len(tasks))

	out, err := w.engine.Kickoff(ctx, crew.Submission{
		Tasks:   tasks,
		Manager: w.coordinator.Role(),
		Process: w.process,
		Verbose: w.verbose,
	})
	if err != nil {
		if errors.CodeOf(err) == errors.CodeUnrecognized {
			err = errors.Submission("execution engine failed", err)
		}
		return failed(res, err)
	}

	res.Status = StatusSuccess
	if out != nil {
		res.RawResults = out
	}
	met := w.metrics.Collect(ctx, out).normalize()
	res.ImprovementPct = met.ImprovementPct
	res.EmergentStrategyCount = met.EmergentStrategyCount
	res.CollaborationScore = met.CollaborationScore
	return res
}

func (w *Workflow) finish(ctx context.Context, span trace.Span, res CollaborationResult) {
	span.SetAttributes(telemetry.ResultAttributes(string(res.Status), res.TaskCount, string(res.ErrorCode))...)
	w.instruments.RecordSolve(ctx, res.TaskName, string(res.Status), res.Duration)

	if res.OK() {
		span.SetStatus(codes.Ok, "")
		w.logger.InfoContext(ctx, "workflow.solve.complete",
			slog.String("run_id", res.RunID),
			slog.Int("tasks", res.TaskCount),
			slog.Duration("duration", res.Duration),
		)
	} else {
		span.SetStatus(codes.Error, res.ErrorMessage)
		w.instruments.RecordError(ctx, errors.New(res.ErrorCode, res.ErrorMessage, nil))
		w.logger.WarnContext(ctx, "workflow.solve.failed",
			slog.String("run_id", res.RunID),
			slog.String("error_code", string(res.ErrorCode)),
			slog.String("error", res.ErrorMessage),
		)
	}

	if w.store == nil {
		return
	}
	if err := w.store.Record(ctx, res.Record()); err != nil {
		w.logger.WarnContext(ctx, "workflow.store.failed",
			slog.String("run_id", res.RunID),
			slog.String("error", err.Error()),
		)
	}
}
