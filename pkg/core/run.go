package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID attaches a run id to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id carried by ctx, if any.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// EnsureRunID returns ctx with a run id, generating one when missing.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := "run-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return WithRunID(ctx, id), id
}

// EventType names a step in the execution of a task batch.
type EventType string

const (
	EventBatchSubmit   EventType = "batch.submitted"
	EventTaskStarted   EventType = "task.started"
	EventTaskDelegated EventType = "task.delegated"
	EventTaskCompleted EventType = "task.completed"
	EventTaskFailed    EventType = "task.failed"
)

// Event is emitted by an engine while it runs a batch. Kind and TaskID are
// empty for batch events.
type Event struct {
	Type      EventType
	RunID     string
	Agent     string
	Kind      RoleKind
	TaskID    string
	Timestamp time.Time
	Payload   map[string]any
}

// BatchEvent builds an event for the batch run under ctx, attributed to
// the managing role.
func BatchEvent(ctx context.Context, t EventType, manager string, payload map[string]any) Event {
	id, _ := RunID(ctx)
	return Event{Type: t, RunID: id, Agent: manager, Timestamp: time.Now().UTC(), Payload: payload}
}

// TaskEvent builds an event for task executed by agent.
func TaskEvent(ctx context.Context, t EventType, task *TaskDescriptor, agent string, payload map[string]any) Event {
	ev := BatchEvent(ctx, t, agent, payload)
	if task != nil {
		ev.Kind = task.Kind
		ev.TaskID = task.ID
	}
	return ev
}

// EventEmitter receives engine events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(ctx context.Context, event Event)

// Emit implements EventEmitter.
func (f EmitterFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NoopEventEmitter drops every event.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(context.Context, Event) {}
