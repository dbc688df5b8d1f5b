// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package crew defines the execution engine a workflow submits its task
// batch to, plus an in-process engine and test doubles.
//
// A submission names a manager role and a process. Under the hierarchical
// process the manager may redistribute work; role agents may not.
package crew

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
)

// ProcessType is the execution discipline of a submission.
type ProcessType string

const (
	// ProcessHierarchical lets the manager delegate and coordinate.
	ProcessHierarchical ProcessType = "hierarchical"
	// ProcessSequential runs tasks one after another in submission order.
	ProcessSequential ProcessType = "sequential"
)

// ParseProcess converts a config or CLI value into a ProcessType. An empty
// value selects the hierarchical process.
func ParseProcess(s string) (ProcessType, error) {
	switch ProcessType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProcessHierarchical:
		return ProcessHierarchical, nil
	case ProcessSequential:
		return ProcessSequential, nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("unknown process %q", s))
	}
}

// Submission is a task batch handed to an engine.
type Submission struct {
	Tasks   []*core.TaskDescriptor
	Manager core.Role
	Process ProcessType
	Verbose bool
}

// Validate checks the submission before it is executed.
func (s Submission) Validate() error {
	if len(s.Tasks) == 0 {
		return errors.Submission("submission has no tasks", nil)
	}
	for i, t := range s.Tasks {
		if t == nil {
			return errors.Submission(fmt.Sprintf("task %d is nil", i), nil)
		}
	}
	if s.Manager.Name == "" {
		return errors.Submission("submission has no manager", nil)
	}
	switch s.Process {
	case ProcessHierarchical:
		if !s.Manager.AllowDelegation {
			return errors.Submission("hierarchical process requires a manager that can delegate", nil).
				WithContext("manager", s.Manager.Name)
		}
	case ProcessSequential:
	default:
		return errors.Submission(fmt.Sprintf("unknown process %q", s.Process), nil)
	}
	return nil
}

// TaskResult is the outcome of one task, kept in submission slot order.
type TaskResult struct {
	TaskID     string        `json:"task_id"`
	Kind       core.RoleKind `json:"kind"`
	ExecutedBy string        `json:"executed_by"`
	Delegated  bool          `json:"delegated,omitempty"`
	Output     any           `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Output is the raw result of a kickoff.
type Output struct {
	RunID       string        `json:"run_id"`
	TaskResults []TaskResult  `json:"task_results"`
	Final       any           `json:"final,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Engine executes task batches.
type Engine interface {
	Kickoff(ctx context.Context, sub Submission) (*Output, error)
}
