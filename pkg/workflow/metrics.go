package workflow

import (
	"context"
	"math"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/crew"
	"github.com/jllopis/metacrew/pkg/tools"
)

// Metrics are the collaboration figures reported on success.
type Metrics struct {
	ImprovementPct        float64 `json:"improvement_pct"`
	EmergentStrategyCount int     `json:"emergent_strategy_count"`
	CollaborationScore    float64 `json:"collaboration_score"`
}

// MetricsSource derives Metrics from a successful engine output.
type MetricsSource interface {
	Collect(ctx context.Context, out *crew.Output) Metrics
}

// MetricsFunc adapts a function to MetricsSource.
type MetricsFunc func(ctx context.Context, out *crew.Output) Metrics

// Collect implements MetricsSource.
func (f MetricsFunc) Collect(ctx context.Context, out *crew.Output) Metrics { return f(ctx, out) }

// StaticMetrics reports the same figures for every run.
type StaticMetrics Metrics

// DefaultMetrics are the illustrative figures reported when no source is
// configured. They are not computed from the execution.
var DefaultMetrics = StaticMetrics{
	ImprovementPct:        47.5,
	EmergentStrategyCount: 5,
	CollaborationScore:    0.85,
}

// Collect implements MetricsSource.
func (s StaticMetrics) Collect(context.Context, *crew.Output) Metrics { return Metrics(s) }

// MonitorMetrics reads the coordinator's collaboration monitor, and the
// improvement reported by the adaptation tool when the output carries it.
type MonitorMetrics struct {
	Coordinator *agent.Coordinator
	Agents      []agent.RoleAgent
}

// Collect implements MetricsSource.
func (m MonitorMetrics) Collect(_ context.Context, out *crew.Output) Metrics {
	var met Metrics
	if m.Coordinator != nil {
		mon := m.Coordinator.MonitorCollaboration(m.Agents)
		met.EmergentStrategyCount = mon.EmergentPatternsDetected
		met.CollaborationScore = mon.CollaborationEfficiency
	}
	if out == nil {
		return met
	}
	for _, r := range out.TaskResults {
		if r.Kind != core.RoleAdaptation {
			continue
		}
		if res, ok := r.Output.(tools.AdaptationResult); ok && res.OK() {
			met.ImprovementPct = res.Performance.ImprovementPercentage
		}
	}
	return met
}

// normalize enforces the result ranges.
func (m Metrics) normalize() Metrics {
	switch {
	case math.IsNaN(m.CollaborationScore), m.CollaborationScore < 0:
		m.CollaborationScore = 0
	case m.CollaborationScore > 1:
		m.CollaborationScore = 1
	}
	if m.EmergentStrategyCount < 0 {
		m.EmergentStrategyCount = 0
	}
	return m
}
