// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"sync"
	"time"
)

// Change describes a reload: the previous and current configuration and
// the top-level sections that differ between them.
type Change struct {
	Previous *Config
	Current  *Config
	Sections []string
}

// Has reports whether section (log, telemetry, engine, workflow, store)
// changed.
func (c Change) Has(section string) bool {
	return slices.Contains(c.Sections, section)
}

// Watcher polls a config file and its profile file and reloads them with
// the same overrides when either is modified. Listeners only hear about
// reloads that change at least one section.
type Watcher struct {
	path     string
	profile  string
	sets     []string
	paths    []string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	current   *Config
	modTimes  map[string]time.Time
	listeners []func(Change)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOverrides reapplies --set values on every reload.
func WithOverrides(sets []string) WatcherOption {
	return func(w *Watcher) {
		w.sets = append([]string(nil), sets...)
	}
}

// NewWatcher loads path with profile and records the files to poll.
func NewWatcher(path, profile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		profile:  profile,
		interval: time.Second,
		logger:   slog.Default(),
		modTimes: map[string]time.Time{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, err := LoadOptions(path, profile, w.sets)
	if err != nil {
		return nil, err
	}
	w.current = cfg

	if path != "" {
		w.paths = append(w.paths, path)
	}
	if p := profileConfigPath(path, profile); p != "" {
		w.paths = append(w.paths, p)
	}
	w.modified()
	return w, nil
}

// OnChange registers fn to run after each reload that changes a section.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Config returns the configuration currently in effect.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Paths returns the polled files.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// Start polls in the background until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				if w.modified() {
					w.reload()
				}
			}
		}
	}()
}

// Stop ends polling and waits for it to finish. Start must have been
// called. Stop may be called more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// modified updates the recorded modification times and reports whether
// any file is newer than last seen.
func (w *Watcher) modified() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed := false
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if last, ok := w.modTimes[p]; !ok || info.ModTime().After(last) {
			w.modTimes[p] = info.ModTime()
			changed = true
		}
	}
	return changed
}

func (w *Watcher) reload() {
	cfg, err := LoadOptions(w.path, w.profile, w.sets)
	if err != nil {
		w.logger.Error("config.reload.failed", "paths", w.paths, "error", err)
		return
	}

	w.mu.Lock()
	change := Change{Previous: w.current, Current: cfg, Sections: diffSections(w.current, cfg)}
	w.current = cfg
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	if len(change.Sections) == 0 {
		w.logger.Debug("config.reload.unchanged", "paths", w.paths)
		return
	}
	w.logger.Info("config.reload", "paths", w.paths, "sections", change.Sections)
	for _, fn := range listeners {
		fn(change)
	}
}

// diffSections lists the koanf keys of the top-level sections that differ.
func diffSections(a, b *Config) []string {
	if a == nil || b == nil {
		return nil
	}
	var out []string
	va, vb := reflect.ValueOf(*a), reflect.ValueOf(*b)
	t := va.Type()
	for i := 0; i < t.NumField(); i++ {
		if !reflect.DeepEqual(va.Field(i).Interface(), vb.Field(i).Interface()) {
			out = append(out, t.Field(i).Tag.Get("koanf"))
		}
	}
	return out
}
