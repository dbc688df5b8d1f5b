package crew

import (
	"context"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/tools"
)

// Handler executes one task. prior holds the results of the tasks that
// completed before it, in slot order.
type Handler func(ctx context.Context, task *core.TaskDescriptor, prior []TaskResult) (any, error)

// CoordinationSummary is the output of the default coordinator handler.
type CoordinationSummary struct {
	Mode         string         `json:"collaboration_mode"`
	Subtasks     int            `json:"subtasks"`
	Delegated    int            `json:"delegated"`
	Contributors []string       `json:"contributors"`
	Outputs      map[string]any `json:"outputs"`
}

// DefaultHandlers maps each role kind to a handler running the role's tool
// from reg. The coordinator summarizes prior results.
func DefaultHandlers(reg *tools.Registry) map[core.RoleKind]Handler {
	if reg == nil {
		reg = tools.Default()
	}
	handlers := map[core.RoleKind]Handler{
		core.RoleCoordinator: Coordinate,
	}
	if t, ok := reg.Get(tools.MAMLName); ok {
		handlers[core.RoleMetaLearning] = ToolHandler(t, mamlInput)
	}
	if t, ok := reg.Get(tools.AdaptationName); ok {
		handlers[core.RoleAdaptation] = ToolHandler(t, adaptationInput)
	}
	if t, ok := reg.Get(tools.SSMName); ok {
		handlers[core.RoleStateModeling] = ToolHandler(t, ssmInput)
	}
	return handlers
}

// ToolHandler runs tool with the input derived from the task. Call errors
// and results carrying a failure status become TOOL_FAILURE errors; only
// the former are retried.
func ToolHandler(tool core.Tool, input func(*core.TaskDescriptor) any) Handler {
	return func(ctx context.Context, task *core.TaskDescriptor, _ []TaskResult) (any, error) {
		out, err := tool.Call(ctx, input(task))
		if err != nil {
			return out, agent.WrapToolError(err, tool.Name())
		}
		if o, ok := out.(interface{ Err() error }); ok {
			if err := o.Err(); err != nil {
				return out, agent.WrapToolError(err, tool.Name()).WithRecoverable(false)
			}
		}
		return out, nil
	}
}

// Coordinate is the default coordinator handler.
func Coordinate(_ context.Context, task *core.TaskDescriptor, prior []TaskResult) (any, error) {
	sum := CoordinationSummary{
		Mode:         task.Metadata["collaboration_mode"],
		Subtasks:     len(prior),
		Contributors: make([]string, 0, len(prior)),
		Outputs:      make(map[string]any, len(prior)),
	}
	for _, r := range prior {
		if r.Delegated {
			sum.Delegated++
		}
		sum.Contributors = append(sum.Contributors, r.ExecutedBy)
		sum.Outputs[string(r.Kind)] = r.Output
	}
	return sum, nil
}

func mamlInput(task *core.TaskDescriptor) any {
	in := tools.MAMLInput{}
	if ts, ok := task.Inputs["support_data"].([]map[string]any); ok {
		in.Tasks = ts
	}
	return in
}

func adaptationInput(task *core.TaskDescriptor) any {
	in := tools.AdaptationInput{Observations: task.Inputs["environment_data"]}
	if v, ok := task.Inputs["current_performance"].(float64); ok {
		in.CurrentPerformance = v
	}
	return in
}

func ssmInput(task *core.TaskDescriptor) any {
	in := tools.SSMInput{SequenceData: task.Inputs["sequence_data"]}
	if v, ok := task.Inputs["prediction_horizon"].(int); ok {
		in.PredictionSteps = v
	}
	return in
}
