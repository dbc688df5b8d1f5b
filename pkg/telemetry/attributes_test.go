// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestWorkflowAttributes(t *testing.T) {
	attrs := WorkflowAttributes("run-123", "HalfCheetah-v4", "emergent", "hierarchical")

	expected := map[string]any{
		AttrRunID:           "run-123",
		AttrWorkflowTask:    "HalfCheetah-v4",
		AttrWorkflowMode:    "emergent",
		AttrWorkflowProcess: "hierarchical",
	}

	assertAttributes(t, attrs, expected)
}

func TestWorkflowAttributesOmitsEmpty(t *testing.T) {
	attrs := WorkflowAttributes("run-1", "task", "", "")
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
}

func TestResultAttributes(t *testing.T) {
	attrs := ResultAttributes("error", 4, "SUBMISSION_ERROR")

	expected := map[string]any{
		AttrWorkflowStatus:    "error",
		AttrWorkflowTaskCount: 4,
		AttrErrorCode:         "SUBMISSION_ERROR",
	}

	assertAttributes(t, attrs, expected)

	if got := ResultAttributes("success", 4, ""); len(got) != 2 {
		t.Fatalf("success attributes should not carry an error code: %v", got)
	}
}

func TestAgentAttributes(t *testing.T) {
	attrs := AgentAttributes("Multi-Agent Coordinator", "coordinator", 10, true)

	expected := map[string]any{
		AttrAgentName:       "Multi-Agent Coordinator",
		AttrAgentKind:       "coordinator",
		AttrAgentMaxIter:    10,
		AttrAgentDelegation: true,
	}

	assertAttributes(t, attrs, expected)
}

func TestTaskAttributes(t *testing.T) {
	attrs := TaskAttributes("task-1", "adaptation", "Lead", true)

	expected := map[string]any{
		AttrTaskID:        "task-1",
		AttrTaskKind:      "adaptation",
		AttrAgentName:     "Lead",
		AttrTaskDelegated: true,
	}

	assertAttributes(t, attrs, expected)
}

func TestToolCallAttributes(t *testing.T) {
	attrs := ToolCallAttributes("maml_optimizer", 1.5, true)

	expected := map[string]any{
		AttrToolName:       "maml_optimizer",
		AttrToolDurationMs: 1.5,
		AttrToolSuccess:    true,
	}

	assertAttributes(t, attrs, expected)
}

func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()

	found := make(map[string]attribute.KeyValue)
	for _, attr := range attrs {
		found[string(attr.Key)] = attr
	}

	for key, expectedVal := range expected {
		attr, ok := found[key]
		if !ok {
			t.Errorf("missing attribute %s", key)
			continue
		}

		var actualVal any
		switch attr.Value.Type() {
		case attribute.STRING:
			actualVal = attr.Value.AsString()
		case attribute.INT64:
			actualVal = int(attr.Value.AsInt64())
		case attribute.FLOAT64:
			actualVal = attr.Value.AsFloat64()
		case attribute.BOOL:
			actualVal = attr.Value.AsBool()
		}

		if actualVal != expectedVal {
			t.Errorf("attribute %s: got %v, want %v", key, actualVal, expectedVal)
		}
	}
}
