package tools

import (
	"context"
	"fmt"
	"math"
)

const (
	AdaptationName = "test_time_adaptation"

	defaultLearningRate       = 0.01
	defaultInitialPerformance = 0.65
	maxImprovement            = 0.25
	improvementPerStep        = 0.03
	convergenceThreshold      = 0.1
	adaptationStability       = 0.88
)

// AdaptationInput configures a test-time adaptation run.
type AdaptationInput struct {
	Observations    any     `json:"observations,omitempty"`
	Targets         any     `json:"targets,omitempty"`
	LearningRate    float64 `json:"learning_rate,omitempty"`
	AdaptationSteps int     `json:"adaptation_steps,omitempty"`
	// CurrentPerformance of zero means unknown and starts from 0.65.
	CurrentPerformance float64 `json:"current_performance,omitempty"`
}

// AdaptationConfig echoes the settings a run used.
type AdaptationConfig struct {
	LearningRate    float64 `json:"learning_rate"`
	AdaptationSteps int     `json:"adaptation_steps"`
}

// PerformanceMetrics summarizes the simulated improvement.
type PerformanceMetrics struct {
	InitialPerformance    float64 `json:"initial_performance"`
	FinalPerformance      float64 `json:"final_performance"`
	Improvement           float64 `json:"improvement"`
	ImprovementPercentage float64 `json:"improvement_percentage"`
}

// AdaptationResult reports the outcome of a test-time adaptation run.
type AdaptationResult struct {
	Outcome
	Config              AdaptationConfig   `json:"adaptation_config"`
	Performance         PerformanceMetrics `json:"performance_metrics"`
	History             []float64          `json:"adaptation_history"`
	ConvergenceAchieved bool               `json:"convergence_achieved"`
	StabilityScore      float64            `json:"stability_score"`
}

// AdaptationTool simulates online adaptation of a deployed model.
type AdaptationTool struct{}

// NewAdaptation returns the test-time adaptation tool.
func NewAdaptation() *AdaptationTool { return &AdaptationTool{} }

// Name implements core.Tool.
func (t *AdaptationTool) Name() string { return AdaptationName }

// Description implements core.Tool.
func (t *AdaptationTool) Description() string {
	return "Tool for online adaptation and real-time model optimization"
}

// Params implements Described.
func (t *AdaptationTool) Params() []Param {
	return []Param{
		{Name: "observations", Type: "any", Description: "Current observation data"},
		{Name: "targets", Type: "any", Description: "Target values for adaptation"},
		{Name: "learning_rate", Type: "number", Description: "Learning rate for adaptation (default 0.01)"},
		{Name: "adaptation_steps", Type: "integer", Description: "Number of adaptation steps (default 5)"},
		{Name: "current_performance", Type: "number", Description: "Current model performance (default 0.65)"},
	}
}

// Call implements core.Tool.
func (t *AdaptationTool) Call(ctx context.Context, input any) (any, error) {
	var in AdaptationInput
	if typed, ok := input.(AdaptationInput); ok {
		in = typed
	} else if err := decodeInput(input, &in); err != nil {
		return AdaptationResult{Outcome: failed(err.Error())}, nil
	}
	return t.Run(ctx, in), nil
}

// Run simulates an adaptation run: each step adds 0.03 to the starting
// performance, capped at a total gain of 0.25.
func (t *AdaptationTool) Run(ctx context.Context, in AdaptationInput) AdaptationResult {
	fail := func(msg string) AdaptationResult { return AdaptationResult{Outcome: failed(msg)} }
	return guard(AdaptationName, fail, func() AdaptationResult {
		if err := ctx.Err(); err != nil {
			return fail(err.Error())
		}
		if in.LearningRate == 0 {
			in.LearningRate = defaultLearningRate
		}
		if in.AdaptationSteps == 0 {
			in.AdaptationSteps = defaultAdaptationSteps
		}
		if in.AdaptationSteps < 0 {
			return fail(fmt.Sprintf("adaptation_steps must be positive, got %d", in.AdaptationSteps))
		}
		initial := in.CurrentPerformance
		if initial == 0 {
			initial = defaultInitialPerformance
		}

		steps := in.AdaptationSteps
		improvement := math.Min(maxImprovement, float64(steps)*improvementPerStep)
		history := make([]float64, steps+1)
		for i := range history {
			history[i] = initial + float64(i)*improvement/float64(steps)
		}

		return AdaptationResult{
			Outcome: succeeded,
			Config: AdaptationConfig{
				LearningRate:    in.LearningRate,
				AdaptationSteps: steps,
			},
			Performance: PerformanceMetrics{
				InitialPerformance:    initial,
				FinalPerformance:      initial + improvement,
				Improvement:           improvement,
				ImprovementPercentage: improvement / initial * 100,
			},
			History:             history,
			ConvergenceAchieved: improvement > convergenceThreshold,
			StabilityScore:      adaptationStability,
		}
	})
}
