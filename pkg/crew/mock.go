package crew

import (
	"context"
	"fmt"
	"sync"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
)

// MockEngine is a testing implementation of Engine. It records every
// submission and, unless Output or Err is set, echoes one result per task.
type MockEngine struct {
	Output      *Output
	Err         error
	KickoffFunc func(ctx context.Context, sub Submission) (*Output, error)

	mu    sync.Mutex
	calls []Submission
}

// Kickoff implements Engine.
func (m *MockEngine) Kickoff(ctx context.Context, sub Submission) (*Output, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sub)
	m.mu.Unlock()

	if m.KickoffFunc != nil {
		return m.KickoffFunc(ctx, sub)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Output != nil {
		return m.Output, nil
	}

	_, runID := core.EnsureRunID(ctx)
	out := &Output{RunID: runID, TaskResults: make([]TaskResult, len(sub.Tasks))}
	for i, t := range sub.Tasks {
		if t == nil {
			continue
		}
		out.TaskResults[i] = TaskResult{
			TaskID:     t.ID,
			Kind:       t.Kind,
			ExecutedBy: t.ProducerName(),
			Output:     fmt.Sprintf("mock result for %s", t.Kind),
		}
	}
	if n := len(out.TaskResults); n > 0 {
		out.Final = out.TaskResults[n-1].Output
	}
	return out, nil
}

// Calls returns a copy of the recorded submissions.
func (m *MockEngine) Calls() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Submission(nil), m.calls...)
}

// LastSubmission returns the most recent submission.
func (m *MockEngine) LastSubmission() (Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Submission{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// FailingEngine always fails.
type FailingEngine struct {
	Err error
}

// Kickoff implements Engine.
func (f *FailingEngine) Kickoff(context.Context, Submission) (*Output, error) {
	if f.Err == nil {
		return nil, errors.Submission("mock engine failure", nil)
	}
	return nil, f.Err
}

// PanicEngine panics on every kickoff.
type PanicEngine struct {
	Value any
}

// Kickoff implements Engine.
func (p *PanicEngine) Kickoff(context.Context, Submission) (*Output, error) {
	if p.Value == nil {
		panic("mock engine panic")
	}
	panic(p.Value)
}
