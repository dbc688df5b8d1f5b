package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("engine unreachable")
	ce := New(CodeSubmission, "kickoff failed", cause)

	if ce.Code != CodeSubmission {
		t.Errorf("expected CodeSubmission, got %v", ce.Code)
	}
	if ce.Message != "kickoff failed" {
		t.Errorf("expected message 'kickoff failed', got %q", ce.Message)
	}
	if ce.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(ce, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
	if ce.Recoverable {
		t.Errorf("expected recoverable to be false by default")
	}
}

func TestWithContextAndAttribute(t *testing.T) {
	ce := Construction("bad agent", nil).
		WithContext("kind", "adaptation").
		WithAttribute("agent.kind", "adaptation").
		WithRecoverable(true)

	if ce.Context["kind"] != "adaptation" {
		t.Errorf("expected context kind to be set")
	}
	if ce.Attributes["agent.kind"] != "adaptation" {
		t.Errorf("expected attribute agent.kind to be set")
	}
	if ce.RecoverableString() != "true" {
		t.Errorf("expected recoverable string true")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		ce       *CrewError
		expected string
	}{
		{
			name:     "with cause",
			ce:       New(CodeTimeout, "task timed out", errors.New("deadline exceeded")),
			expected: "[TIMEOUT] task timed out: deadline exceeded",
		},
		{
			name:     "without cause",
			ce:       InvalidInput("prediction horizon must be positive"),
			expected: "[INVALID_INPUT] prediction horizon must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ce.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "already CrewError", err: Submission("failed", nil), expected: CodeSubmission},
		{name: "wrapped CrewError", err: fmt.Errorf("outer: %w", Construction("x", nil)), expected: CodeConstruction},
		{name: "generic error", err: errors.New("boom"), expected: CodeUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := As(tt.err)
			if tt.expected == "" {
				if ce != nil {
					t.Errorf("expected nil for nil error")
				}
				return
			}
			if ce == nil {
				t.Fatalf("expected non-nil CrewError")
			}
			if ce.Code != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, ce.Code)
			}
			if CodeOf(tt.err) != tt.expected {
				t.Errorf("CodeOf: expected %v, got %v", tt.expected, CodeOf(tt.err))
			}
		})
	}
}

func TestIsWalksNestedCodes(t *testing.T) {
	inner := New(CodeTimeout, "task timed out", nil)
	outer := Submission("kickoff failed", inner)

	if !Is(outer, CodeSubmission) {
		t.Errorf("expected outer code to match")
	}
	if !Is(outer, CodeTimeout) {
		t.Errorf("expected nested code to match")
	}
	if Is(outer, CodeNotFound) {
		t.Errorf("unexpected match for CodeNotFound")
	}
	if Is(errors.New("plain"), CodeUnrecognized) {
		t.Errorf("plain errors carry no code")
	}
}

func TestMarshalJSON(t *testing.T) {
	ce := New(CodeToolFailure, "tool failed", errors.New("bad input"))
	ce.WithContext("tool", "state_space_model").WithRecoverable(true)

	data, err := json.Marshal(ce)
	if err != nil {
		t.Fatalf("unexpected error marshaling: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unexpected error unmarshaling: %v", err)
	}

	if result["code"] != "TOOL_FAILURE" {
		t.Errorf("expected code 'TOOL_FAILURE', got %v", result["code"])
	}
	if result["error"] != "bad input" {
		t.Errorf("expected error 'bad input', got %v", result["error"])
	}
	if result["recoverable"] != true {
		t.Errorf("expected recoverable true")
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"crew", New(CodeTimeout, "too slow", nil), "too slow"},
		{"nested", Submission("engine failed", New(CodeNotFound, "no handler", errors.New("x"))), "engine failed: no handler: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
