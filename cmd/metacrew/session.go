package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jllopis/metacrew/pkg/crew"
	"github.com/jllopis/metacrew/pkg/crewdef"
	"github.com/jllopis/metacrew/pkg/mcp"
	"github.com/jllopis/metacrew/pkg/store"
	"github.com/jllopis/metacrew/pkg/telemetry"
	"github.com/jllopis/metacrew/pkg/tools"
	"github.com/jllopis/metacrew/pkg/workflow"
)

// session holds the resources a command needs, opened from cfg.
type session struct {
	store       store.ResultStore
	instruments *telemetry.WorkflowMetrics
	logger      *slog.Logger
	closers     []func() error
}

func openSession(ctx context.Context) (*session, error) {
	s := &session{logger: slog.Default()}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig(cfg.Telemetry.ServiceName, version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
			OTLPHeaders:  cfg.Telemetry.OTLPHeaders,
			Writer:       os.Stderr,
		})
		if err != nil {
			return nil, NewConfigError(err, global.ConfigPath)
		}
		s.closers = append(s.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdown(ctx)
		})
	}

	instruments, err := telemetry.NewWorkflowMetrics()
	if err != nil {
		s.logger.WarnContext(ctx, "telemetry.metrics.unavailable", "error", err)
	}
	s.instruments = instruments

	rs, closeStore, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		s.close()
		return nil, NewStoreError(err, cfg.Store.Driver)
	}
	s.store = rs
	s.closers = append(s.closers, closeStore)
	return s, nil
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("session.close.failed", "error", err)
		}
	}
	s.closers = nil
}

// engine builds the local engine from the engine config. With viaMCP the
// role tools are reached through an in-process MCP server.
func (s *session) engine(ctx context.Context, viaMCP bool) (*crew.LocalEngine, error) {
	opts := []crew.LocalOption{
		crew.WithEngineLogger(s.logger),
		crew.WithMaxAttempts(cfg.Engine.MaxAttempts),
	}
	if cfg.Engine.TaskTimeoutSeconds > 0 {
		opts = append(opts, crew.WithTaskTimeout(time.Duration(cfg.Engine.TaskTimeoutSeconds)*time.Second))
	}
	if viaMCP {
		reg, err := s.remoteRegistry(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, crew.WithTools(reg))
	}
	return crew.NewLocalEngine(opts...), nil
}

func (s *session) remoteRegistry(ctx context.Context) (*tools.Registry, error) {
	srv := mcp.NewServer("metacrew", version, tools.Default(), mcp.WithServerLogger(s.logger))
	opts := []mcp.ClientOption{mcp.WithClientLogger(s.logger)}
	if cfg.Engine.TaskTimeoutSeconds > 0 {
		opts = append(opts, mcp.WithCallTimeout(time.Duration(cfg.Engine.TaskTimeoutSeconds)*time.Second))
	}
	client, err := mcp.NewInProcessClient(ctx, srv, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to tool server: %w", err)
	}
	s.closers = append(s.closers, client.Close)
	remote, err := mcp.RemoteTools(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("list remote tools: %w", err)
	}
	return tools.NewRegistry(remote...)
}

// workflow builds the workflow for c. A nil c selects the default crew.
// An empty process falls back to engine.process.
func (s *session) workflow(ctx context.Context, c *crewdef.Crew, process string, viaMCP bool) (*workflow.Workflow, error) {
	engine, err := s.engine(ctx, viaMCP)
	if err != nil {
		return nil, err
	}

	if process == "" {
		process = cfg.Engine.Process
	}
	p, err := crew.ParseProcess(process)
	if err != nil {
		return nil, NewInvalidArgumentError("process", err)
	}
	if c == nil {
		c = &crewdef.Crew{}
	}

	return workflow.New(c.Coordinator, c.Agents,
		workflow.WithEngine(engine),
		workflow.WithStore(s.store),
		workflow.WithLogger(s.logger),
		workflow.WithProcess(p),
		workflow.WithVerbose(cfg.Engine.Verbose),
		workflow.WithInstruments(s.instruments),
	)
}
