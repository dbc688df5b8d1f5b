// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads metacrew settings from defaults, files, profiles,
// environment variables and command line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "METACREW_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Engine    EngineConfig    `koanf:"engine"`
	Workflow  WorkflowConfig  `koanf:"workflow"`
	Store     StoreConfig     `koanf:"store"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Enabled      bool              `koanf:"enabled"`
	Exporter     string            `koanf:"exporter"` // stdout, otlp
	ServiceName  string            `koanf:"service_name"`
	OTLPEndpoint string            `koanf:"otlp_endpoint"`
	OTLPInsecure bool              `koanf:"otlp_insecure"`
	OTLPHeaders  map[string]string `koanf:"otlp_headers"`
}

type EngineConfig struct {
	Process            string `koanf:"process"` // hierarchical, sequential
	TaskTimeoutSeconds int    `koanf:"task_timeout_seconds"`
	MaxAttempts        int    `koanf:"max_attempts"`
	Verbose            bool   `koanf:"verbose"`
}

type WorkflowConfig struct {
	Mode string `koanf:"mode"`
	Task string `koanf:"task"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"` // memory, sqlite
	DSN    string `koanf:"dsn"`
}

// Global k instance
var (
	k   = koanf.New(".")
	kMu sync.Mutex
)

func setDefaults() {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("telemetry.enabled", false)
	k.Set("telemetry.exporter", "stdout")
	k.Set("telemetry.service_name", "metacrew")
	k.Set("telemetry.otlp_endpoint", "localhost:4317")
	k.Set("telemetry.otlp_insecure", true)

	k.Set("engine.process", "hierarchical")
	k.Set("engine.task_timeout_seconds", 0)
	k.Set("engine.max_attempts", 1)
	k.Set("engine.verbose", true)

	k.Set("workflow.mode", "emergent")
	k.Set("workflow.task", "HalfCheetah-v4")

	k.Set("store.driver", "memory")
	k.Set("store.dsn", "")
}

// Load reads defaults, the optional file at path and METACREW_ env vars.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile is Load plus an optional profile file next to path,
// named <base>.<profile><ext>. A missing profile file is ignored.
func LoadWithProfile(path, profile string) (*Config, error) {
	return load(path, profile, nil)
}

// LoadWithCLI parses --config, --profile (alias --env) and repeated
// --set key=value arguments and loads the resulting configuration.
// Unknown arguments are ignored.
func LoadWithCLI(args []string) (*Config, error) {
	opts, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(opts.path, opts.profile, opts.sets)
}

// LoadOptions loads from already parsed flag values.
func LoadOptions(path, profile string, sets []string) (*Config, error) {
	overrides := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, err := splitSet(s)
		if err != nil {
			return nil, err
		}
		overrides[key] = value
	}
	return load(path, profile, overrides)
}

func load(path, profile string, overrides map[string]any) (*Config, error) {
	kMu.Lock()
	defer kMu.Unlock()

	k = koanf.New(".")
	setDefaults()

	// 1. Base file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// 2. Profile file
	if p := profileConfigPath(path, profile); p != "" {
		if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load profile %s: %w", p, err)
		}
	}

	// 3. ENV (METACREW_ENGINE_MAX_ATTEMPTS -> engine.max_attempts)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	// 4. --set
	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("apply --set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps an env var name to a koanf key. The first underscore splits
// the section from the field so multi-word fields survive.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}

// profileConfigPath returns the profile file for base, or "" when either
// is empty or the file does not exist.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	ext := filepath.Ext(base)
	candidate := strings.TrimSuffix(base, ext) + "." + profile + ext
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

type cliOptions struct {
	path    string
	profile string
	sets    map[string]any
}

func parseCLIOverrides(args []string) (cliOptions, error) {
	opts := cliOptions{sets: map[string]any{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--config", "--profile", "--env", "--set":
		default:
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for %s", name)
			}
			i++
			value = args[i]
		}
		switch name {
		case "--config":
			opts.path = value
		case "--profile", "--env":
			opts.profile = value
		case "--set":
			key, v, err := splitSet(value)
			if err != nil {
				return opts, err
			}
			opts.sets[key] = v
		}
	}
	return opts, nil
}

// splitSet parses key=value. Values that look like JSON objects or arrays
// are decoded so whole sections can be replaced.
func splitSet(s string) (string, any, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid --set %q: expected key=value", s)
	}
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			return key, decoded, nil
		}
	}
	return key, value, nil
}
