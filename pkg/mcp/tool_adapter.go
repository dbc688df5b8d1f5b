// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/tools"
)

// ToolCaller abstracts MCP tool execution for adapters.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// ToolAdapter wraps an MCP tool to satisfy core.Tool.
type ToolAdapter struct {
	tool   mcp.Tool
	caller ToolCaller
}

// NewToolAdapter builds a core.Tool backed by an MCP tool definition and caller.
func NewToolAdapter(tool mcp.Tool, caller ToolCaller) (*ToolAdapter, error) {
	if tool.Name == "" {
		return nil, errors.New("mcp tool name is required")
	}
	if caller == nil {
		return nil, errors.New("tool caller is required")
	}
	return &ToolAdapter{tool: tool, caller: caller}, nil
}

func (t *ToolAdapter) Name() string        { return t.tool.Name }
func (t *ToolAdapter) Description() string { return t.tool.Description }

// Call encodes input as tool arguments and returns the structured result
// as a RemoteResult.
func (t *ToolAdapter) Call(ctx context.Context, input any) (any, error) {
	args, err := toArgs(input)
	if err != nil {
		return nil, err
	}
	for _, key := range t.tool.InputSchema.Required {
		if _, ok := args[key]; !ok {
			return nil, fmt.Errorf("mcp tool %s: missing required field %q", t.tool.Name, key)
		}
	}

	result, err := t.caller.CallTool(ctx, t.tool.Name, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("mcp tool result is nil")
	}
	if result.IsError {
		return nil, fmt.Errorf("mcp tool %s: %s", t.tool.Name, textContent(result.Content))
	}
	return decodeResult(result)
}

// RemoteResult is a tool result received over MCP.
type RemoteResult map[string]any

// Err reports a tool-level failure carried in the result body.
func (r RemoteResult) Err() error {
	if status, _ := r["status"].(string); status == string(tools.StatusError) {
		msg, _ := r["error_message"].(string)
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// RemoteTools lists the tools served behind c and adapts each one.
func RemoteTools(ctx context.Context, c *Client) ([]core.Tool, error) {
	listed, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Tool, 0, len(listed))
	for _, tool := range listed {
		adapter, err := NewToolAdapter(tool, c)
		if err != nil {
			return nil, err
		}
		out = append(out, adapter)
	}
	return out, nil
}

// toArgs accepts a map, JSON text or bytes, or any JSON-encodable value.
func toArgs(input any) (map[string]interface{}, error) {
	var raw []byte
	switch v := input.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]interface{}{}, nil
		}
		raw = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("mcp tool args: unsupported type %T", input)
		}
		raw = encoded
	}
	args := map[string]interface{}{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("mcp tool args: invalid JSON: %w", err)
	}
	return args, nil
}

func decodeResult(result *mcp.CallToolResult) (RemoteResult, error) {
	if m, ok := result.StructuredContent.(map[string]interface{}); ok {
		return RemoteResult(m), nil
	}
	text := textContent(result.Content)
	out := RemoteResult{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return RemoteResult{"text": text}, nil
	}
	return out, nil
}

func textContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var _ core.Tool = (*ToolAdapter)(nil)
