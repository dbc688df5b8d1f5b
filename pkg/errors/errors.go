// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for metacrew.
//
// Failures are classified so that boundary code (the workflow, the tools)
// can turn them into status values without losing the original cause.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies metacrew errors for monitoring and reporting.
type ErrorCode string

const (
	// CodeConstruction indicates an agent, task or workflow could not be built.
	CodeConstruction ErrorCode = "CONSTRUCTION_ERROR"

	// CodeSubmission indicates the execution engine rejected or failed a submission.
	CodeSubmission ErrorCode = "SUBMISSION_ERROR"

	// CodeUnrecognized marks any failure that was caught generically.
	CodeUnrecognized ErrorCode = "UNRECOGNIZED"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeToolFailure indicates a tool execution failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeContextLost indicates the context was canceled mid-operation.
	CodeContextLost ErrorCode = "CONTEXT_LOST"

	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// CrewError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type CrewError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *CrewError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *CrewError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *CrewError) MarshalJSON() ([]byte, error) {
	var cause string
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(struct {
		Code        string                 `json:"code"`
		Message     string                 `json:"message"`
		Err         string                 `json:"error,omitempty"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Attributes  map[string]string      `json:"attributes,omitempty"`
		Recoverable bool                   `json:"recoverable"`
	}{
		Code:        string(e.Code),
		Message:     e.Message,
		Err:         cause,
		Context:     e.Context,
		Attributes:  e.Attributes,
		Recoverable: e.Recoverable,
	})
}

// New creates a new CrewError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *CrewError {
	return &CrewError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
	}
}

// Construction builds a CodeConstruction error.
func Construction(msg string, cause error) *CrewError {
	return New(CodeConstruction, msg, cause)
}

// Submission builds a CodeSubmission error.
func Submission(msg string, cause error) *CrewError {
	return New(CodeSubmission, msg, cause)
}

// InvalidInput builds a non-recoverable CodeInvalidInput error.
func InvalidInput(msg string) *CrewError {
	return New(CodeInvalidInput, msg, nil)
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *CrewError) WithContext(key string, value interface{}) *CrewError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *CrewError) WithAttribute(key, value string) *CrewError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *CrewError) WithRecoverable(recoverable bool) *CrewError {
	e.Recoverable = recoverable
	return e
}

// As finds the first CrewError in err's chain. Errors that carry none are
// wrapped as CodeUnrecognized so callers always get a code to report.
func As(err error) *CrewError {
	if err == nil {
		return nil
	}
	var ce *CrewError
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(CodeUnrecognized, err.Error(), err)
}

// CodeOf returns the code of the first CrewError in err's chain, or
// CodeUnrecognized when there is none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return As(err).Code
}

// Message returns the text of err without code prefixes, following the
// chain of CrewError causes.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *CrewError
	if !stderrors.As(err, &ce) {
		return err.Error()
	}
	if ce.Err != nil {
		return ce.Message + ": " + Message(ce.Err)
	}
	return ce.Message
}

// Is reports whether any error in err's chain has the given code.
func Is(err error, code ErrorCode) bool {
	var ce *CrewError
	for err != nil {
		if stderrors.As(err, &ce) {
			if ce.Code == code {
				return true
			}
			err = ce.Err
			continue
		}
		return false
	}
	return false
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *CrewError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
