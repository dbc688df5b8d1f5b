// Package agent implements the four role agents that take part in a
// collaborative workflow: meta-learning, adaptation, state modeling and
// the coordinator that manages them.
package agent

import (
	"fmt"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
)

// Defaults applied by TaskFor when a parameter is not provided.
const (
	DefaultCurrentPerformance = 0.0
	DefaultTargetPerformance  = 0.9
	DefaultPredictionHorizon  = 10
)

// RoleAgent is a named participant representing one specialization.
type RoleAgent interface {
	Kind() core.RoleKind
	Role() core.Role
}

// TaskBuilder is a role agent that can build its task from the shared
// workflow parameters, reading only the fields it recognizes.
type TaskBuilder interface {
	RoleAgent
	TaskFor(taskName string, p Params) (*core.TaskDescriptor, error)
}

// Params is the union of the per-role task parameters. Every field is
// optional; nil pointers and a zero horizon take the package defaults.
type Params struct {
	SupportData        any
	QueryData          any
	SequenceData       any
	EnvironmentData    any
	CurrentPerformance *float64
	TargetPerformance  *float64
	PredictionHorizon  int
}

// Float returns a pointer to v, for the optional Params fields.
func Float(v float64) *float64 { return &v }

// Option configures a role agent.
type Option func(*core.Role) error

// WithName overrides the role name.
func WithName(name string) Option {
	return func(r *core.Role) error {
		r.Name = name
		return nil
	}
}

// WithGoal overrides the role goal.
func WithGoal(goal string) Option {
	return func(r *core.Role) error {
		r.Goal = goal
		return nil
	}
}

// WithBackstory overrides the role backstory.
func WithBackstory(backstory string) Option {
	return func(r *core.Role) error {
		r.Backstory = backstory
		return nil
	}
}

// WithMaxIterations sets the iteration budget. It must be at least 1.
func WithMaxIterations(n int) Option {
	return func(r *core.Role) error {
		if n < 1 {
			return fmt.Errorf("max iterations must be >= 1, got %d", n)
		}
		r.MaxIterations = n
		return nil
	}
}

// WithCapabilities replaces the capability tags.
func WithCapabilities(tags ...string) Option {
	return func(r *core.Role) error {
		r.Capabilities = core.CapabilitySet(tags...)
		return nil
	}
}

// WithTools replaces the tool names the role advertises.
func WithTools(names ...string) Option {
	return func(r *core.Role) error {
		r.Tools = append([]string(nil), names...)
		return nil
	}
}

type base struct {
	role core.Role
}

func newBase(defaults core.Role, opts []Option) (base, error) {
	role := defaults.Clone()
	for _, opt := range opts {
		if err := opt(&role); err != nil {
			return base{}, errors.Construction("invalid agent option", err).
				WithContext("kind", string(defaults.Kind))
		}
	}
	if role.Name == "" {
		return base{}, errors.Construction("agent name is required", nil).
			WithContext("kind", string(defaults.Kind))
	}
	if role.MaxIterations < 1 {
		role.MaxIterations = 1
	}
	return base{role: role}, nil
}

// Kind returns the role kind.
func (b *base) Kind() core.RoleKind { return b.role.Kind }

// Role returns a copy of the role metadata.
func (b *base) Role() core.Role { return b.role.Clone() }

// producer is the non-owning reference stored in built descriptors.
func (b *base) producer() *core.Role { return &b.role }

// New builds the default agent for a role kind. It is the lookup used by
// definition files and the CLI.
func New(kind core.RoleKind, opts ...Option) (RoleAgent, error) {
	var (
		a   RoleAgent
		err error
	)
	switch kind {
	case core.RoleMetaLearning:
		a, err = NewMetaLearning(opts...)
	case core.RoleAdaptation:
		a, err = NewAdaptation(opts...)
	case core.RoleStateModeling:
		a, err = NewStateModeling(opts...)
	case core.RoleCoordinator:
		a, err = NewCoordinator(opts...)
	default:
		return nil, errors.Construction(fmt.Sprintf("unknown role kind %q", kind), nil)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DefaultAgents returns one agent of each non-coordinator kind.
func DefaultAgents() []RoleAgent {
	meta, _ := NewMetaLearning()
	adapt, _ := NewAdaptation()
	state, _ := NewStateModeling()
	return []RoleAgent{meta, adapt, state}
}
