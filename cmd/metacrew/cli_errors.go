// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/jllopis/metacrew/pkg/errors"
)

// CLIError wraps CrewError with a hint for the user.
type CLIError struct {
	*errors.CrewError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(ce *errors.CrewError, hint string) *CLIError {
	return &CLIError{CrewError: ce, Hint: hint}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.CrewError == nil {
		return "unknown error"
	}
	msg := e.CrewError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

func (e *CLIError) Unwrap() error { return e.CrewError }

// PrintError writes the error to w as text or JSON.
func (e *CLIError) PrintError(w io.Writer, asJSON bool) {
	if asJSON {
		writeJSONLine(w, map[string]any{
			"error": map[string]string{
				"code":    string(e.Code),
				"message": errors.Message(e.CrewError),
				"hint":    e.Hint,
			},
		})
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", e.Code, errors.Message(e.CrewError))
	if e.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
	}
}

// NewNotFoundError creates a not found error with CLI hints.
func NewNotFoundError(resource, name string) *CLIError {
	ce := errors.New(errors.CodeNotFound, fmt.Sprintf("%s '%s' not found", resource, name), nil).
		WithContext("resource", resource).
		WithContext("name", name)
	return NewCLIError(ce, fmt.Sprintf("run 'metacrew %ss list' to see what is available", resource))
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg string, err error) *CLIError {
	ce := errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid argument %s", arg), err).
		WithContext("argument", arg)
	return NewCLIError(ce, "run 'metacrew help' for usage information")
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	ce := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath)
	hint := "check the --set values and METACREW_* variables"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(ce, hint)
}

// NewStoreError creates a result store error with CLI hints.
func NewStoreError(err error, driver string) *CLIError {
	ce := errors.New(errors.CodeInternal, "result store unavailable", err).
		WithContext("driver", driver).
		WithRecoverable(true)
	return NewCLIError(ce, "check store.driver and store.dsn in your configuration")
}

func printError(err error, asJSON bool) {
	var cliErr *CLIError
	if !stderrors.As(err, &cliErr) {
		cliErr = NewCLIError(errors.As(err), "")
	}
	cliErr.PrintError(os.Stderr, asJSON)
}

func printJSON(w io.Writer, value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(w, string(payload))
}

func writeJSONLine(w io.Writer, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(w, string(payload))
}
