// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
)

// WrapToolError wraps a tool failure with appropriate context.
func WrapToolError(err error, toolName string) *errors.CrewError {
	if err == nil {
		return nil
	}
	return errors.New(errors.CodeToolFailure, "tool execution failed", err).
		WithContext("tool_name", toolName).
		WithAttribute("tool.name", toolName).
		WithRecoverable(true)
}

// WrapBuildError wraps a task construction failure for a role kind.
func WrapBuildError(err error, kind core.RoleKind) *errors.CrewError {
	if err == nil {
		return nil
	}
	return errors.Construction("task construction failed", err).
		WithContext("kind", string(kind)).
		WithAttribute("agent.kind", string(kind)).
		WithRecoverable(false)
}

// NewInvalidInputError creates a new invalid input error.
func NewInvalidInputError(msg string) *errors.CrewError {
	return errors.InvalidInput(msg).WithRecoverable(false)
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, name string) *errors.CrewError {
	return errors.New(errors.CodeNotFound, resource+" not found", nil).
		WithContext("resource", resource).
		WithContext("name", name).
		WithRecoverable(false)
}
