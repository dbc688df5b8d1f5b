package core

import (
	"time"

	"github.com/google/uuid"
)

// TaskDescriptor is an inert description of work handed to an execution
// engine. It is never mutated after construction.
type TaskDescriptor struct {
	ID             string
	Kind           RoleKind
	Description    string
	ExpectedOutput string
	// ProducedBy points at the role of the agent that built the task. It
	// is not owned by the descriptor.
	ProducedBy *Role
	CreatedAt  time.Time
	Metadata   map[string]string
	// Inputs carries opaque data (support sets, sequences) for the engine.
	Inputs map[string]any
}

// NewTaskDescriptor creates a descriptor with a generated ID. The kind is
// taken from the producing role. Metadata is copied.
func NewTaskDescriptor(producer *Role, description, expectedOutput string, metadata map[string]string) *TaskDescriptor {
	td := &TaskDescriptor{
		ID:             uuid.NewString(),
		Description:    description,
		ExpectedOutput: expectedOutput,
		ProducedBy:     producer,
		CreatedAt:      time.Now().UTC(),
	}
	if producer != nil {
		td.Kind = producer.Kind
	}
	if len(metadata) > 0 {
		td.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			td.Metadata[k] = v
		}
	}
	return td
}

// ProducerName returns the role name of the producing agent, or "" when
// the descriptor has no producer.
func (t *TaskDescriptor) ProducerName() string {
	if t == nil || t.ProducedBy == nil {
		return ""
	}
	return t.ProducedBy.Name
}
