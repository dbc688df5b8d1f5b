// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools implements the learning tools role agents carry: a MAML
// optimizer, a test-time adaptation tool and a state space model tool.
//
// The numeric cores are placeholders that return fixed or simulated
// values. Every tool converts its own failures (bad input, panics) into a
// Result with StatusError; Call never returns an error for them.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jllopis/metacrew/pkg/core"
)

// Status is the outcome tag carried by every tool result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome is embedded in every tool result.
type Outcome struct {
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OK reports whether the tool succeeded.
func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// Err returns the failure as an error, or nil when the tool succeeded.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return fmt.Errorf("%s", o.ErrorMessage)
}

// Param describes one input argument of a tool.
type Param struct {
	Name        string
	Type        string // number, integer, string, array, any
	Description string
	Required    bool
}

// Described is implemented by tools that publish their input parameters.
type Described interface {
	core.Tool
	Params() []Param
}

// Registry indexes tools by name.
type Registry struct {
	tools map[string]core.Tool
}

// NewRegistry builds a registry and rejects duplicate or empty names.
func NewRegistry(tools ...core.Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]core.Tool, len(tools))}
	for _, t := range tools {
		if t == nil || t.Name() == "" {
			return nil, fmt.Errorf("tool name is required")
		}
		if _, dup := r.tools[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name())
		}
		r.tools[t.Name()] = t
	}
	return r, nil
}

// Default returns a registry with the three built-in tools.
func Default() *Registry {
	r, _ := NewRegistry(NewMAML(), NewAdaptation(), NewSSM())
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (core.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools sorted by name.
func (r *Registry) List() []core.Tool {
	out := make([]core.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// decodeInput converts a loosely typed input (map, JSON string or bytes,
// or a struct) into dst.
func decodeInput(input any, dst any) error {
	var raw []byte
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		raw = []byte(v)
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode tool input: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode tool input: %w", err)
	}
	return nil
}

// guard runs fn and turns a panic into the failure value built by fail.
func guard[T any](name string, fail func(msg string) T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			out = fail(fmt.Sprintf("tool %s panicked: %v", name, r))
		}
	}()
	return fn()
}

func failed(msg string) Outcome {
	return Outcome{Status: StatusError, ErrorMessage: msg}
}

var succeeded = Outcome{Status: StatusSuccess}
