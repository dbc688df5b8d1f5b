package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/tools"
)

var adaptationRole = core.Role{
	Kind: core.RoleAdaptation,
	Name: "Test-Time Adaptation Specialist",
	Goal: "Continuously optimize model performance during deployment through real-time adaptation",
	Backstory: "An expert in online learning and test-time adaptation who improves model " +
		"performance as new data arrives, without retraining from scratch.",
	Capabilities:  core.CapabilitySet("online_learning", "test_time_adaptation", "performance_tuning"),
	MaxIterations: 3,
	Tools:         []string{tools.AdaptationName},
}

// AdaptationParams are the inputs of a real-time optimization task.
// Performance values are not range-checked.
type AdaptationParams struct {
	CurrentPerformance float64
	TargetPerformance  float64
	EnvironmentData    any
}

// OnlineAdaptation summarizes one online adaptation pass.
type OnlineAdaptation struct {
	AdaptedParams          map[string]any `json:"adapted_params"`
	PerformanceImprovement float64        `json:"performance_improvement"`
	AdaptationSteps        int            `json:"adaptation_steps"`
}

// AdaptationAgent specializes in test-time adaptation and online optimization.
type AdaptationAgent struct {
	base
	tool *tools.AdaptationTool
}

// NewAdaptation creates an adaptation agent.
func NewAdaptation(opts ...Option) (*AdaptationAgent, error) {
	b, err := newBase(adaptationRole, opts)
	if err != nil {
		return nil, err
	}
	return &AdaptationAgent{base: b, tool: tools.NewAdaptation()}, nil
}

// BuildTask creates a real-time optimization task.
func (a *AdaptationAgent) BuildTask(p AdaptationParams) (*core.TaskDescriptor, error) {
	current := strconv.FormatFloat(p.CurrentPerformance, 'g', -1, 64)
	target := strconv.FormatFloat(p.TargetPerformance, 'g', -1, 64)
	desc := fmt.Sprintf(`Perform real-time adaptation to improve performance:

Current Performance: %s
Target Performance: %s

Your task:
1. Analyze current model performance gaps
2. Identify adaptation opportunities
3. Apply online optimization techniques
4. Monitor improvement and stability

Focus on achieving target performance while maintaining stability.`, current, target)

	td := core.NewTaskDescriptor(a.producer(), desc,
		"Adapted model with improved performance metrics",
		map[string]string{
			"current_performance": current,
			"target_performance":  target,
		})
	td.Inputs = map[string]any{
		"environment_data":    p.EnvironmentData,
		"current_performance": p.CurrentPerformance,
		"target_performance":  p.TargetPerformance,
	}
	return td, nil
}

// TaskFor implements TaskBuilder.
func (a *AdaptationAgent) TaskFor(_ string, p Params) (*core.TaskDescriptor, error) {
	ap := AdaptationParams{
		CurrentPerformance: DefaultCurrentPerformance,
		TargetPerformance:  DefaultTargetPerformance,
		EnvironmentData:    p.EnvironmentData,
	}
	if p.CurrentPerformance != nil {
		ap.CurrentPerformance = *p.CurrentPerformance
	}
	if p.TargetPerformance != nil {
		ap.TargetPerformance = *p.TargetPerformance
	}
	return a.BuildTask(ap)
}

// AdaptOnline runs one adaptation pass over new observations.
func (a *AdaptationAgent) AdaptOnline(ctx context.Context, observations, targets any) (OnlineAdaptation, error) {
	res := a.tool.Run(ctx, tools.AdaptationInput{Observations: observations, Targets: targets})
	if !res.OK() {
		return OnlineAdaptation{}, WrapToolError(res.Err(), tools.AdaptationName)
	}
	return OnlineAdaptation{
		AdaptedParams:          map[string]any{},
		PerformanceImprovement: res.Performance.Improvement,
		AdaptationSteps:        res.Config.AdaptationSteps,
	}, nil
}
