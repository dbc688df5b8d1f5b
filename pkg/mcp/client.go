// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/metacrew/pkg/telemetry"
)

const (
	clientName = "metacrew-client"

	defaultCallTimeout = 10 * time.Second
	defaultRetries     = 2
	defaultBackoff     = 200 * time.Millisecond
	defaultCacheTTL    = 30 * time.Second
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout bounds each request. Zero leaves requests unbounded.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithRetry sets how many times a failed request is repeated and the base
// backoff, doubled on each retry.
func WithRetry(retries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithToolCacheTTL sets how long a tool listing is reused. Zero disables
// the cache.
func WithToolCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl >= 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithClientLogger sets the logger used for retries.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to a tool server. Requests are traced, bounded by a
// timeout and retried on transport errors.
type Client struct {
	conn     client.MCPClient
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	listed   []mcp.Tool
	listedAt time.Time
}

// NewClient wraps an initialized connection.
func NewClient(conn client.MCPClient, opts ...ClientOption) *Client {
	c := &Client{
		conn:     conn,
		timeout:  defaultCallTimeout,
		retries:  defaultRetries,
		backoff:  defaultBackoff,
		cacheTTL: defaultCacheTTL,
		logger:   slog.Default(),
		tracer:   otel.Tracer(telemetry.TracerMCP),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewInProcessClient connects to s without a transport.
func NewInProcessClient(ctx context.Context, s *Server, opts ...ClientOption) (*Client, error) {
	conn, err := client.NewInProcessClient(s.MCPServer())
	if err != nil {
		return nil, err
	}
	if err := initialize(ctx, conn); err != nil {
		return nil, err
	}
	return NewClient(conn, opts...), nil
}

// NewStdioClient starts command and talks to it over its stdin and stdout.
func NewStdioClient(ctx context.Context, command string, args []string, opts ...ClientOption) (*Client, error) {
	conn, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, err
	}
	if err := initialize(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return NewClient(conn, opts...), nil
}

func initialize(ctx context.Context, conn *client.Client) error {
	if err := conn.Start(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "0.1.0"}
	_, err := conn.Initialize(ctx, req)
	return err
}

// ListTools returns the tools the server publishes.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if listed, ok := c.cached(); ok {
		return listed, nil
	}
	res, err := request(ctx, c, "MCP.ListTools", func(ctx context.Context) (*mcp.ListToolsResult, error) {
		return c.conn.ListTools(ctx, mcp.ListToolsRequest{})
	})
	if err != nil {
		return nil, err
	}
	c.remember(res.Tools)
	return res.Tools, nil
}

// CallTool runs the named tool with args.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return request(ctx, c, "MCP.CallTool", func(ctx context.Context) (*mcp.CallToolResult, error) {
		return c.conn.CallTool(ctx, req)
	}, attribute.String("mcp.tool", name))
}

// Forget drops the cached tool listing.
func (c *Client) Forget() {
	c.mu.Lock()
	c.listed = nil
	c.mu.Unlock()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) cached() ([]mcp.Tool, bool) {
	if c.cacheTTL == 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listed == nil || time.Since(c.listedAt) > c.cacheTTL {
		return nil, false
	}
	return append([]mcp.Tool(nil), c.listed...), true
}

func (c *Client) remember(listed []mcp.Tool) {
	if c.cacheTTL == 0 {
		return
	}
	c.mu.Lock()
	c.listed = append([]mcp.Tool(nil), listed...)
	c.listedAt = time.Now()
	c.mu.Unlock()
}

// request runs fn in a span, retrying transport errors with exponential
// backoff. Cancellation and deadlines are never retried.
func request[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	defer span.End()

	var (
		zero T
		err  error
	)
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.logger.DebugContext(ctx, "mcp.request.retry",
				slog.String("op", op),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
			if serr := sleep(ctx, wait); serr != nil {
				err = serr
				break
			}
		}

		var res T
		res, err = bounded(ctx, c.timeout, fn)
		if err == nil {
			span.SetAttributes(attribute.Int("mcp.attempts", attempt+1))
			return res, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return zero, err
}

// bounded runs fn under the client timeout.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
