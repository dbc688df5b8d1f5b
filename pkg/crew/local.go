package crew

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
	"github.com/jllopis/metacrew/pkg/telemetry"
	"github.com/jllopis/metacrew/pkg/tools"
)

// LocalEngine runs task batches in process using per-kind handlers.
type LocalEngine struct {
	handlers map[core.RoleKind]Handler
	retry    RetryPolicy
	timeout  time.Duration
	emitter  core.EventEmitter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// LocalOption configures a LocalEngine.
type LocalOption func(*LocalEngine)

// WithHandler sets the handler for a role kind. A nil handler removes it,
// which makes hierarchical submissions delegate that kind to the manager.
func WithHandler(kind core.RoleKind, h Handler) LocalOption {
	return func(e *LocalEngine) {
		if h == nil {
			delete(e.handlers, kind)
			return
		}
		e.handlers[kind] = h
	}
}

// WithTools replaces the default handlers with ones backed by reg.
func WithTools(reg *tools.Registry) LocalOption {
	return func(e *LocalEngine) {
		e.handlers = DefaultHandlers(reg)
	}
}

// WithTaskTimeout bounds each task attempt. Zero disables the bound.
func WithTaskTimeout(d time.Duration) LocalOption {
	return func(e *LocalEngine) { e.timeout = d }
}

// WithMaxAttempts sets how many times a failing task is attempted.
func WithMaxAttempts(n int) LocalOption {
	return func(e *LocalEngine) { e.retry.MaxAttempts = n }
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) LocalOption {
	return func(e *LocalEngine) { e.retry = p }
}

// WithEmitter sets the event emitter.
func WithEmitter(em core.EventEmitter) LocalOption {
	return func(e *LocalEngine) {
		if em != nil {
			e.emitter = em
		}
	}
}

// WithEngineLogger sets the logger.
func WithEngineLogger(l *slog.Logger) LocalOption {
	return func(e *LocalEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewLocalEngine creates an engine with the default tool handlers.
func NewLocalEngine(opts ...LocalOption) *LocalEngine {
	e := &LocalEngine{
		handlers: DefaultHandlers(nil),
		retry:    DefaultRetryPolicy(),
		emitter:  core.NoopEventEmitter{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(telemetry.TracerCrew),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Kickoff implements Engine.
func (e *LocalEngine) Kickoff(ctx context.Context, sub Submission) (*Output, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := e.tracer.Start(ctx, "Crew.Kickoff",
		trace.WithAttributes(telemetry.AgentAttributes(sub.Manager.Name, string(sub.Manager.Kind),
			sub.Manager.MaxIterations, sub.Manager.AllowDelegation)...),
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, runID),
			attribute.String(telemetry.AttrWorkflowProcess, string(sub.Process)),
			attribute.Int(telemetry.AttrWorkflowTaskCount, len(sub.Tasks)),
		),
	)
	defer span.End()

	start := time.Now()
	e.emitter.Emit(ctx, core.BatchEvent(ctx, core.EventBatchSubmit, sub.Manager.Name, map[string]any{
		"process": string(sub.Process),
		"tasks":   len(sub.Tasks),
	}))
	if sub.Verbose {
		e.logger.InfoContext(ctx, "crew.kickoff.start",
			slog.String("run_id", runID),
			slog.String("process", string(sub.Process)),
			slog.Int("tasks", len(sub.Tasks)),
		)
	}

	results := make([]TaskResult, len(sub.Tasks))
	var err error
	if sub.Process == ProcessSequential {
		err = e.runSequential(ctx, sub, results)
	} else {
		err = e.runHierarchical(ctx, sub, results)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Submission("crew kickoff failed", err).
			WithContext("run_id", runID).
			WithAttribute("run.id", runID)
	}

	out := &Output{
		RunID:       runID,
		TaskResults: results,
		Final:       results[len(results)-1].Output,
		Duration:    time.Since(start),
	}
	span.SetStatus(codes.Ok, "")
	if sub.Verbose {
		e.logger.InfoContext(ctx, "crew.kickoff.complete",
			slog.String("run_id", runID),
			slog.Duration("duration", out.Duration),
		)
	}
	return out, nil
}

// runHierarchical fans out the role tasks, then runs the coordination
// tasks in slot order with every role result as prior input.
func (e *LocalEngine) runHierarchical(ctx context.Context, sub Submission, results []TaskResult) error {
	var roleSlots, coordSlots []int
	for i, t := range sub.Tasks {
		if t.Kind == core.RoleCoordinator {
			coordSlots = append(coordSlots, i)
		} else {
			roleSlots = append(roleSlots, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, i := range roleSlots {
		g.Go(func() error {
			res, err := e.runTask(gctx, sub.Tasks[i], nil, sub.Manager, true)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	prior := make([]TaskResult, 0, len(sub.Tasks))
	for _, i := range roleSlots {
		prior = append(prior, results[i])
	}
	for _, i := range coordSlots {
		res, err := e.runTask(ctx, sub.Tasks[i], prior, sub.Manager, true)
		results[i] = res
		if err != nil {
			return err
		}
		prior = append(prior, res)
	}
	return nil
}

func (e *LocalEngine) runSequential(ctx context.Context, sub Submission, results []TaskResult) error {
	for i, t := range sub.Tasks {
		res, err := e.runTask(ctx, t, results[:i], sub.Manager, false)
		results[i] = res
		if err != nil {
			return err
		}
	}
	return nil
}

// runTask resolves the handler for task and runs it with retry and
// timeout. When no handler serves the kind and delegation is allowed, the
// manager's handler executes it instead.
func (e *LocalEngine) runTask(ctx context.Context, task *core.TaskDescriptor, prior []TaskResult, manager core.Role, canDelegate bool) (TaskResult, error) {
	res := TaskResult{
		TaskID:     task.ID,
		Kind:       task.Kind,
		ExecutedBy: task.ProducerName(),
	}
	if task.Kind == core.RoleCoordinator {
		res.ExecutedBy = manager.Name
	}

	h, ok := e.handlers[task.Kind]
	if !ok && canDelegate && task.Kind != core.RoleCoordinator {
		h, ok = e.handlers[core.RoleCoordinator]
		res.Delegated = true
		res.ExecutedBy = manager.Name
	}
	if !ok {
		err := agent.NewNotFoundError("task handler", string(task.Kind)).
			WithContext("task_id", task.ID)
		res.Error = err.Error()
		e.emitter.Emit(ctx, core.TaskEvent(ctx, core.EventTaskFailed, task, res.ExecutedBy, map[string]any{"error": res.Error}))
		return res, err
	}

	ctx, span := e.tracer.Start(ctx, "Crew.Task",
		trace.WithAttributes(telemetry.TaskAttributes(task.ID, string(task.Kind), res.ExecutedBy, res.Delegated)...),
	)
	defer span.End()

	if res.Delegated {
		e.emitter.Emit(ctx, core.TaskEvent(ctx, core.EventTaskDelegated, task, manager.Name, map[string]any{
			"producer": task.ProducerName(),
		}))
	}
	e.emitter.Emit(ctx, core.TaskEvent(ctx, core.EventTaskStarted, task, res.ExecutedBy, nil))

	start := time.Now()
	var output any
	attempts, err := e.retry.do(ctx, func() error {
		out, err := withTimeout(ctx, e.timeout, func(ctx context.Context) (any, error) {
			return safeCall(ctx, h, task, prior)
		})
		output = out
		return err
	})
	res.Duration = time.Since(start)
	res.Output = output
	span.SetAttributes(attribute.Int(telemetry.AttrTaskAttempts, attempts))

	if err != nil {
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.emitter.Emit(ctx, core.TaskEvent(ctx, core.EventTaskFailed, task, res.ExecutedBy, map[string]any{
			"error":    res.Error,
			"attempts": attempts,
		}))
		e.logger.WarnContext(ctx, "crew.task.failed",
			slog.String("task_id", task.ID),
			slog.String("kind", string(task.Kind)),
			slog.String("error", res.Error),
		)
		return res, err
	}

	e.emitter.Emit(ctx, core.TaskEvent(ctx, core.EventTaskCompleted, task, res.ExecutedBy, map[string]any{
		"duration_ms": res.Duration.Milliseconds(),
	}))
	e.logger.DebugContext(ctx, "crew.task.complete",
		slog.String("task_id", task.ID),
		slog.String("kind", string(task.Kind)),
		slog.String("executed_by", res.ExecutedBy),
		slog.Bool("delegated", res.Delegated),
	)
	return res, nil
}

func safeCall(ctx context.Context, h Handler, task *core.TaskDescriptor, prior []TaskResult) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeInternal, fmt.Sprintf("handler panicked: %v", r), nil).
				WithContext("task_id", task.ID)
		}
	}()
	return h(ctx, task, prior)
}
