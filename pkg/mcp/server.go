// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the metacrew tools over the Model Context Protocol
// and adapts MCP tools back into core.Tool values.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/telemetry"
	"github.com/jllopis/metacrew/pkg/tools"
)

// Server wraps the mcp-go server and publishes a tool registry.
type Server struct {
	mcpServer *server.MCPServer
	names     []string
	logger    *slog.Logger
	tracer    trace.Tracer
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger used for tool calls.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server publishing every tool in reg.
func NewServer(name, version string, reg *tools.Registry, opts ...ServerOption) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		logger:    slog.Default(),
		tracer:    otel.Tracer(telemetry.TracerMCP),
	}
	for _, opt := range opts {
		opt(s)
	}
	if reg != nil {
		for _, t := range reg.List() {
			s.RegisterTool(t)
		}
	}
	return s
}

// RegisterTool publishes t. Tools implementing tools.Described get a
// typed input schema.
func (s *Server) RegisterTool(t core.Tool) {
	s.mcpServer.AddTool(ToolSpec(t), s.handler(t))
	s.names = append(s.names, t.Name())
}

// ToolNames returns the published tool names in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.names...)
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handler(t core.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := s.tracer.Start(ctx, "MCP.ServeTool")
		defer span.End()

		start := time.Now()
		args, _ := request.Params.Arguments.(map[string]interface{})
		out, err := t.Call(ctx, args)
		if err == nil {
			if o, ok := out.(interface{ Err() error }); ok {
				err = o.Err()
			}
		}
		span.SetAttributes(telemetry.ToolCallAttributes(t.Name(),
			float64(time.Since(start).Microseconds())/1000, err == nil)...)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			s.logger.WarnContext(ctx, "mcp.tool.failed", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return structuredResult(out)
	}
}

func structuredResult(out any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	var structured map[string]interface{}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return mcp.NewToolResultText(string(raw)), nil
	}
	result := mcp.NewToolResultText(string(raw))
	result.StructuredContent = structured
	return result, nil
}

// ToolSpec builds the MCP tool definition for t.
func ToolSpec(t core.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	if d, ok := t.(tools.Described); ok {
		for _, p := range d.Params() {
			opts = append(opts, paramOption(p))
		}
	}
	return mcp.NewTool(t.Name(), opts...)
}

func paramOption(p tools.Param) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(p.Description)}
	if p.Required {
		props = append(props, mcp.Required())
	}
	switch p.Type {
	case "number", "integer":
		return mcp.WithNumber(p.Name, props...)
	case "string":
		return mcp.WithString(p.Name, props...)
	case "array":
		return mcp.WithArray(p.Name, props...)
	default:
		return withAny(p)
	}
}

// withAny declares a property without a JSON type constraint.
func withAny(p tools.Param) mcp.ToolOption {
	return func(t *mcp.Tool) {
		if t.InputSchema.Properties == nil {
			t.InputSchema.Properties = map[string]any{}
		}
		t.InputSchema.Properties[p.Name] = map[string]any{"description": p.Description}
		if p.Required {
			t.InputSchema.Required = append(t.InputSchema.Required, p.Name)
		}
	}
}
