package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jllopis/metacrew/pkg/config"
	"github.com/jllopis/metacrew/pkg/mcp"
	"github.com/jllopis/metacrew/pkg/telemetry"
	"github.com/jllopis/metacrew/pkg/tools"
)

var mcpWatch bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the learning tools over MCP on stdio",
	Long: `Serve the learning tools over the Model Context Protocol on stdio.
Logs go to stderr. With --watch the config file (and profile file) is
polled and log.level changes apply without a restart.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", false, "reload log level when the config file changes")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	if mcpWatch && global.ConfigPath != "" {
		watcher, err := config.NewWatcher(global.ConfigPath, global.Profile,
			config.WithOverrides(global.Sets),
			config.WithWatchInterval(2*time.Second),
			config.WithWatchLogger(logger),
		)
		if err != nil {
			return NewConfigError(err, global.ConfigPath)
		}
		watcher.OnChange(func(c config.Change) {
			if c.Has("log") {
				telemetry.SetLogLevel(c.Current.Log.Level)
				logger.Info("mcp.log_level.updated", "level", c.Current.Log.Level)
			}
			if len(c.Sections) > 1 || !c.Has("log") {
				logger.Warn("mcp.config.restart_required", "sections", c.Sections)
			}
		})
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	srv := mcp.NewServer("metacrew", version, tools.Default(), mcp.WithServerLogger(logger))
	logger.InfoContext(ctx, "mcp.serve.start", "tools", srv.ToolNames())
	return srv.ServeStdio()
}
