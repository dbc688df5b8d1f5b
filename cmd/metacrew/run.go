package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jllopis/metacrew/pkg/crewdef"
	"github.com/jllopis/metacrew/pkg/errors"
	"github.com/jllopis/metacrew/pkg/workflow"
)

type runFlags struct {
	File    string
	Task    string
	Mode    string
	Process string
	Current float64
	Target  float64
	Horizon int
	ViaMCP  bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve a task with the role agents",
	Long: `Build the task batch for a learning task and submit it to the local
engine. The report is printed for successful and failed runs alike; only
invalid flags, config or crew files make the command fail.

Examples:
  metacrew run --task HalfCheetah-v4
  metacrew run --file crew.yaml --current 0.4 --target 0.95
  metacrew --set engine.process=sequential run --json`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.File, "file", "f", "", "crew definition (YAML or JSON)")
	f.StringVar(&runOpts.Task, "task", "", "task or environment name (default workflow.task)")
	f.StringVar(&runOpts.Mode, "mode", "", "collaboration mode (default workflow.mode)")
	f.StringVar(&runOpts.Process, "process", "", "hierarchical or sequential (default engine.process)")
	f.Float64Var(&runOpts.Current, "current", 0, "current performance")
	f.Float64Var(&runOpts.Target, "target", 0, "target performance")
	f.IntVar(&runOpts.Horizon, "horizon", 0, "prediction horizon")
	f.BoolVar(&runOpts.ViaMCP, "via-mcp", false, "call the role tools through an in-process MCP server")
}

// resolved is the crew, parameters and names a run uses after merging
// flags, the crew file and config.
type resolved struct {
	crew    *crewdef.Crew
	task    string
	mode    string
	process string
	params  workflow.Params
}

func resolveRun(cmd *cobra.Command, opts runFlags) (*resolved, error) {
	r := &resolved{
		task:    cfg.Workflow.Task,
		mode:    cfg.Workflow.Mode,
		process: opts.Process,
	}

	if opts.File != "" {
		def, err := crewdef.Load(opts.File)
		if err != nil {
			return nil, NewInvalidArgumentError("--file", err)
		}
		c, err := def.Build()
		if err != nil {
			return nil, NewInvalidArgumentError("--file", err)
		}
		r.crew = c
		r.params = c.Params
		r.task = def.Task
		if def.Mode != "" {
			r.mode = def.Mode
		}
		if r.process == "" {
			r.process = def.Process
		}
	}

	flags := cmd.Flags()
	if opts.Task != "" {
		r.task = opts.Task
	}
	if opts.Mode != "" {
		r.mode = opts.Mode
	}
	if flags.Changed("current") {
		r.params.CurrentPerformance = workflow.Float(opts.Current)
	}
	if flags.Changed("target") {
		r.params.TargetPerformance = workflow.Float(opts.Target)
	}
	if flags.Changed("horizon") {
		r.params.PredictionHorizon = opts.Horizon
	}
	return r, nil
}

func runSolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	r, err := resolveRun(cmd, runOpts)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	w, err := s.workflow(ctx, r.crew, r.process, runOpts.ViaMCP)
	if err != nil {
		if errors.Is(err, errors.CodeConstruction) {
			printConstructionFailure(out, err)
			return nil
		}
		return err
	}

	res := w.SolveTask(ctx, r.task, r.mode, r.params)
	if global.JSON {
		printJSON(out, res)
		return nil
	}
	fmt.Fprint(out, res.Report())
	return nil
}

func printConstructionFailure(w io.Writer, err error) {
	if global.JSON {
		printJSON(w, map[string]string{
			"status":        string(workflow.StatusError),
			"error_code":    string(errors.CodeOf(err)),
			"error_message": errors.Message(err),
		})
		return
	}
	fmt.Fprintf(w, "Status: %s\nError: %s [%s]\n", workflow.StatusError, errors.Message(err), errors.CodeOf(err))
}
