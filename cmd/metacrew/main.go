// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the metacrew CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jllopis/metacrew/pkg/config"
	"github.com/jllopis/metacrew/pkg/telemetry"
)

type globalFlags struct {
	ConfigPath string
	Profile    string
	Sets       []string
	JSON       bool
}

var (
	global globalFlags
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "metacrew",
	Short: "Run collaborative role agents on a learning task",
	Long: `metacrew builds one task per role agent (meta-learning, adaptation,
state modeling) plus a coordination task, and submits the batch to an
execution engine with the coordinator as manager.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&global.ConfigPath, "config", "", "path to a YAML or JSON config file")
	flags.StringVar(&global.Profile, "profile", "", "config profile, loads <config>.<profile>.yaml on top")
	flags.StringArrayVar(&global.Sets, "set", nil, "override config key=value (repeatable)")
	flags.BoolVar(&global.JSON, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(runCmd, tasksCmd, toolsCmd, mcpCmd, historyCmd, versionCmd)
	_ = godotenv.Load()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadOptions(global.ConfigPath, global.Profile, global.Sets)
	if err != nil {
		return NewConfigError(err, global.ConfigPath)
	}
	cfg = loaded
	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err, global.JSON)
		stop()
		os.Exit(1)
	}
}
