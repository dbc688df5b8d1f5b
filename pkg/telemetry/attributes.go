// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration and structured
// logging for collaborative workflows.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for metacrew telemetry.
const (
	// Run attributes
	AttrRunID = "metacrew.run.id"

	// Workflow attributes
	AttrWorkflowTask      = "metacrew.workflow.task"
	AttrWorkflowMode      = "metacrew.workflow.mode"
	AttrWorkflowStatus    = "metacrew.workflow.status"
	AttrWorkflowTaskCount = "metacrew.workflow.task_count"
	AttrWorkflowProcess   = "metacrew.workflow.process"

	// Agent attributes
	AttrAgentName       = "metacrew.agent.name"
	AttrAgentKind       = "metacrew.agent.kind"
	AttrAgentMaxIter    = "metacrew.agent.max_iterations"
	AttrAgentDelegation = "metacrew.agent.allow_delegation"

	// Task attributes
	AttrTaskID        = "metacrew.task.id"
	AttrTaskKind      = "metacrew.task.kind"
	AttrTaskDelegated = "metacrew.task.delegated"
	AttrTaskAttempts  = "metacrew.task.attempts"

	// Tool attributes
	AttrToolName       = "metacrew.tool.name"
	AttrToolDurationMs = "metacrew.tool.duration_ms"
	AttrToolSuccess    = "metacrew.tool.success"

	// Error attributes
	AttrErrorCode = "metacrew.error.code"
)

// WorkflowAttributes returns attributes for a SolveTask span.
func WorkflowAttributes(runID, task, mode, process string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrWorkflowTask, task),
	}
	if mode != "" {
		attrs = append(attrs, attribute.String(AttrWorkflowMode, mode))
	}
	if process != "" {
		attrs = append(attrs, attribute.String(AttrWorkflowProcess, process))
	}
	return attrs
}

// ResultAttributes returns attributes describing a finished collaboration.
func ResultAttributes(status string, taskCount int, errorCode string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrWorkflowStatus, status),
		attribute.Int(AttrWorkflowTaskCount, taskCount),
	}
	if errorCode != "" {
		attrs = append(attrs, attribute.String(AttrErrorCode, errorCode))
	}
	return attrs
}

// AgentAttributes returns attributes for a role agent.
func AgentAttributes(name, kind string, maxIter int, allowDelegation bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrAgentName, name),
		attribute.String(AttrAgentKind, kind),
	}
	if maxIter > 0 {
		attrs = append(attrs, attribute.Int(AttrAgentMaxIter, maxIter))
	}
	if allowDelegation {
		attrs = append(attrs, attribute.Bool(AttrAgentDelegation, true))
	}
	return attrs
}

// TaskAttributes returns attributes for a task execution span.
func TaskAttributes(taskID, kind, executedBy string, delegated bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrTaskKind, kind),
		attribute.Bool(AttrTaskDelegated, delegated),
	}
	if taskID != "" {
		attrs = append(attrs, attribute.String(AttrTaskID, taskID))
	}
	if executedBy != "" {
		attrs = append(attrs, attribute.String(AttrAgentName, executedBy))
	}
	return attrs
}

// ToolCallAttributes returns attributes for a tool call span.
func ToolCallAttributes(name string, durationMs float64, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrToolName, name),
		attribute.Float64(AttrToolDurationMs, durationMs),
		attribute.Bool(AttrToolSuccess, success),
	}
}
