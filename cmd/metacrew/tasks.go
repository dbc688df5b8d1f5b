package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jllopis/metacrew/pkg/agent"
	"github.com/jllopis/metacrew/pkg/core"
	"github.com/jllopis/metacrew/pkg/errors"
	"github.com/jllopis/metacrew/pkg/workflow"
)

var tasksOpts runFlags

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Print the task batch a run would submit",
	Args:  cobra.NoArgs,
	RunE:  runTasks,
}

func init() {
	f := tasksCmd.Flags()
	f.StringVarP(&tasksOpts.File, "file", "f", "", "crew definition (YAML or JSON)")
	f.StringVar(&tasksOpts.Task, "task", "", "task or environment name (default workflow.task)")
	f.StringVar(&tasksOpts.Mode, "mode", "", "collaboration mode (default workflow.mode)")
	f.Float64Var(&tasksOpts.Current, "current", 0, "current performance")
	f.Float64Var(&tasksOpts.Target, "target", 0, "target performance")
	f.IntVar(&tasksOpts.Horizon, "horizon", 0, "prediction horizon")
}

type taskRow struct {
	ID          string            `json:"id"`
	Kind        core.RoleKind     `json:"kind"`
	Producer    string            `json:"producer"`
	Description string            `json:"description"`
	Expected    string            `json:"expected_output"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func runTasks(cmd *cobra.Command, _ []string) error {
	r, err := resolveRun(cmd, tasksOpts)
	if err != nil {
		return err
	}

	var coordinator *agent.Coordinator
	var agents []agent.RoleAgent
	if r.crew != nil {
		coordinator, agents = r.crew.Coordinator, r.crew.Agents
	}
	w, err := workflow.New(coordinator, agents)
	if err != nil {
		printConstructionFailure(cmd.OutOrStdout(), err)
		return nil
	}
	tasks, err := w.BuildTasks(r.task, r.mode, r.params)
	if err != nil {
		return NewCLIError(errors.As(err), "check the task parameters")
	}

	rows := make([]taskRow, 0, len(tasks))
	for _, td := range tasks {
		rows = append(rows, taskRow{
			ID:          td.ID,
			Kind:        td.Kind,
			Producer:    td.ProducerName(),
			Description: td.Description,
			Expected:    td.ExpectedOutput,
			Metadata:    td.Metadata,
		})
	}
	if global.JSON {
		printJSON(cmd.OutOrStdout(), rows)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPRODUCER\tDESCRIPTION")
	for _, row := range rows {
		line, _, _ := strings.Cut(row.Description, "\n")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Kind, row.Producer, agent.Preview(line, 60))
	}
	return tw.Flush()
}
