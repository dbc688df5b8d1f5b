// Copyright 2026 © The Metacrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package crewdef loads declarative crew definitions: which role agents
// take part, how they are configured and the parameters of the task they
// solve together.
package crewdef

import (
	"fmt"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/crew"
)

// Definition describes a crew and the task it solves.
type Definition struct {
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Task        string      `json:"task" yaml:"task"`
	Mode        string      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Process     string      `json:"process,omitempty" yaml:"process,omitempty"`
	Coordinator *AgentSpec  `json:"coordinator,omitempty" yaml:"coordinator,omitempty"`
	Agents      []AgentSpec `json:"agents,omitempty" yaml:"agents,omitempty"`
	Params      ParamsSpec  `json:"params,omitempty" yaml:"params,omitempty"`
}

// AgentSpec configures one agent. Empty fields keep the role defaults.
type AgentSpec struct {
	Kind          string   `json:"kind" yaml:"kind"`
	Name          string   `json:"name,omitempty" yaml:"name,omitempty"`
	Goal          string   `json:"goal,omitempty" yaml:"goal,omitempty"`
	Backstory     string   `json:"backstory,omitempty" yaml:"backstory,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Tools         []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// ParamsSpec holds the task parameters.
type ParamsSpec struct {
	SupportData        any      `json:"support_data,omitempty" yaml:"support_data,omitempty"`
	QueryData          any      `json:"query_data,omitempty" yaml:"query_data,omitempty"`
	SequenceData       any      `json:"sequence_data,omitempty" yaml:"sequence_data,omitempty"`
	EnvironmentData    any      `json:"environment_data,omitempty" yaml:"environment_data,omitempty"`
	CurrentPerformance *float64 `json:"current_performance,omitempty" yaml:"current_performance,omitempty"`
	TargetPerformance  *float64 `json:"target_performance,omitempty" yaml:"target_performance,omitempty"`
	PredictionHorizon  int      `json:"prediction_horizon,omitempty" yaml:"prediction_horizon,omitempty"`
}

// Validate checks the definition for structural errors.
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("definition is nil")
	}
	if d.Task == "" {
		return fmt.Errorf("task is required")
	}
	if _, err := crew.ParseProcess(d.Process); err != nil {
		return err
	}
	if d.Coordinator != nil {
		if err := d.Coordinator.validate(); err != nil {
			return fmt.Errorf("coordinator: %w", err)
		}
		if d.Coordinator.Kind != "" {
			kind, _ := core.ParseRoleKind(d.Coordinator.Kind)
			if kind != core.RoleCoordinator {
				return fmt.Errorf("coordinator: kind must be %q, got %q", core.RoleCoordinator, d.Coordinator.Kind)
			}
		}
	}
	seen := make(map[core.RoleKind]bool, len(d.Agents))
	for i, spec := range d.Agents {
		if spec.Kind == "" {
			return fmt.Errorf("agent %d: kind is required", i)
		}
		if err := spec.validate(); err != nil {
			return fmt.Errorf("agent %d: %w", i, err)
		}
		kind, _ := core.ParseRoleKind(spec.Kind)
		if kind == core.RoleCoordinator {
			return fmt.Errorf("agent %d: the coordinator is configured under coordinator", i)
		}
		if seen[kind] {
			return fmt.Errorf("agent %d: duplicate kind %q", i, kind)
		}
		seen[kind] = true
	}
	if d.Params.PredictionHorizon < 0 {
		return fmt.Errorf("params: prediction_horizon must be positive, got %d", d.Params.PredictionHorizon)
	}
	return nil
}

func (s AgentSpec) validate() error {
	if s.Kind != "" {
		if _, err := core.ParseRoleKind(s.Kind); err != nil {
			return err
		}
	}
	if s.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", s.MaxIterations)
	}
	return nil
}

func (s AgentSpec) options() []agent.Option {
	var opts []agent.Option
	if s.Name != "" {
		opts = append(opts, agent.WithName(s.Name))
	}
	if s.Goal != "" {
		opts = append(opts, agent.WithGoal(s.Goal))
	}
	if s.Backstory != "" {
		opts = append(opts, agent.WithBackstory(s.Backstory))
	}
	if s.MaxIterations > 0 {
		opts = append(opts, agent.WithMaxIterations(s.MaxIterations))
	}
	if len(s.Capabilities) > 0 {
		opts = append(opts, agent.WithCapabilities(s.Capabilities...))
	}
	if len(s.Tools) > 0 {
		opts = append(opts, agent.WithTools(s.Tools...))
	}
	return opts
}

// Crew is a definition turned into agents and parameters.
type Crew struct {
	Coordinator *agent.Coordinator
	// Agents is nil when the definition lists none, which selects the
	// default agents.
	Agents  []agent.RoleAgent
	Params  agent.Params
	Process crew.ProcessType
}

// Build validates the definition and constructs its agents.
func (d *Definition) Build() (*Crew, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	process, _ := crew.ParseProcess(d.Process)

	var coordOpts []agent.Option
	if d.Coordinator != nil {
		coordOpts = d.Coordinator.options()
	}
	coordinator, err := agent.NewCoordinator(coordOpts...)
	if err != nil {
		return nil, err
	}

	var agents []agent.RoleAgent
	for _, spec := range d.Agents {
		kind, _ := core.ParseRoleKind(spec.Kind)
		a, err := agent.New(kind, spec.options()...)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return &Crew{
		Coordinator: coordinator,
		Agents:      agents,
		Process:     process,
		Params: agent.Params{
			SupportData:        d.Params.SupportData,
			QueryData:          d.Params.QueryData,
			SequenceData:       d.Params.SequenceData,
			EnvironmentData:    d.Params.EnvironmentData,
			CurrentPerformance: d.Params.CurrentPerformance,
			TargetPerformance:  d.Params.TargetPerformance,
			PredictionHorizon:  d.Params.PredictionHorizon,
		},
	}, nil
}
