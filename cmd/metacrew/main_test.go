package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jllopis/metacrew/pkg/store"
)

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunPrintsReport(t *testing.T) {
	out, err := execute(t, "run", "--task", "Walker2d-v4", "--current", "0.5")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{
		"Task: Walker2d-v4 (mode emergent, 4 tasks)",
		"Status: success",
		"Performance improvement: 47.5%",
		"Emergent strategies: 5",
		"Collaboration effectiveness: 0.85",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunJSONSequentialViaMCP(t *testing.T) {
	out, err := execute(t, "--json", "--set", "engine.process=sequential", "run", "--via-mcp", "--mode", "parallel")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var res struct {
		Status    string `json:"status"`
		Mode      string `json:"mode"`
		TaskName  string `json:"task_name"`
		TaskCount int    `json:"task_count"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Status != "success" || res.Mode != "parallel" || res.TaskName != "HalfCheetah-v4" || res.TaskCount != 4 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunWithCrewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	body := `
task: Hopper-v4
mode: cooperative
process: sequential
agents:
  - kind: adaptation
  - kind: state_modeling
params:
  prediction_horizon: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write crew: %v", err)
	}

	out, err := execute(t, "run", "--file", path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Task: Hopper-v4 (mode cooperative, 3 tasks)") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestRunConstructionFailureStillSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	body := `
task: Hopper-v4
coordinator:
  name: Same Name
agents:
  - kind: adaptation
    name: Same Name
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write crew: %v", err)
	}

	out, err := execute(t, "run", "--file", path)
	if err != nil {
		t.Fatalf("construction failures must not fail the command: %v", err)
	}
	if !strings.Contains(out, "Status: error") || !strings.Contains(out, "[CONSTRUCTION_ERROR]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	if _, err := execute(t, "run", "--process", "mesh"); err == nil {
		t.Fatal("expected error for unknown process")
	}
	if _, err := execute(t, "run", "--file", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing crew file")
	}
	if _, err := execute(t, "--set", "broken", "run"); err == nil {
		t.Fatal("expected config error for invalid --set")
	}
}

func TestTasksCommand(t *testing.T) {
	out, err := execute(t, "tasks", "--task", "Ant-v4")
	if err != nil {
		t.Fatalf("tasks failed: %v", err)
	}
	for _, kind := range []string{"meta_learning", "adaptation", "state_modeling", "coordinator"} {
		if !strings.Contains(out, kind) {
			t.Errorf("expected %s in output:\n%s", kind, out)
		}
	}

	out, err = execute(t, "--json", "tasks")
	if err != nil {
		t.Fatalf("tasks --json failed: %v", err)
	}
	var rows []taskRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 4 || rows[3].Kind != "coordinator" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestToolsCommands(t *testing.T) {
	out, err := execute(t, "tools", "list")
	if err != nil {
		t.Fatalf("tools list failed: %v", err)
	}
	if !strings.Contains(out, "maml_optimizer") || !strings.Contains(out, "tasks") {
		t.Fatalf("unexpected list:\n%s", out)
	}

	out, err = execute(t, "tools", "call", "state_space_model", "--args", `{"state_dim": -1}`)
	if err != nil {
		t.Fatalf("tool failures are results, got error: %v", err)
	}
	if !strings.Contains(out, `"status": "error"`) {
		t.Fatalf("expected error status in output:\n%s", out)
	}

	if _, err := execute(t, "tools", "call", "state_space_model", "--via-mcp", "--args", `{"state_dim": -1}`); err == nil {
		t.Fatal("expected remote tool failure to surface as an error")
	}

	out, err = execute(t, "tools", "call", "test_time_adaptation", "--via-mcp", "--args", `{"current_performance": 0.5}`)
	if err != nil {
		t.Fatalf("tools call via mcp failed: %v", err)
	}
	if !strings.Contains(out, `"status": "success"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "tools", "call", "missing"); err == nil {
		t.Fatal("expected not found error")
	}
	if _, err := execute(t, "tools", "call", "maml_optimizer", "--args", "not json"); err == nil {
		t.Fatal("expected invalid args error")
	}
}

func TestHistoryWithSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "history.db")
	sets := []string{"--set", "store.driver=sqlite", "--set", "store.dsn=" + dsn}

	if _, err := execute(t, append(sets, "run", "--task", "first")...); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := execute(t, append(sets, "run", "--task", "second")...); err != nil {
		t.Fatalf("second run: %v", err)
	}

	out, err := execute(t, append(append([]string{"--json"}, sets...), "history")...)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var records []store.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(records) != 2 || records[0].TaskName != "second" {
		t.Fatalf("unexpected history %+v", records)
	}

	out, err = execute(t, append(sets, "history", "--task", "first")...)
	if err != nil {
		t.Fatalf("history --task: %v", err)
	}
	if !strings.Contains(out, "first") || strings.Contains(out, "second") {
		t.Fatalf("unexpected filtered history:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "metacrew dev") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestPrintErrorFormats(t *testing.T) {
	var buf bytes.Buffer
	NewNotFoundError("tool", "x").PrintError(&buf, true)
	var payload map[string]map[string]string
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if payload["error"]["code"] != "NOT_FOUND" || payload["error"]["hint"] == "" {
		t.Fatalf("unexpected payload %v", payload)
	}

	buf.Reset()
	NewConfigError(os.ErrNotExist, "metacrew.yaml").PrintError(&buf, false)
	if !strings.Contains(buf.String(), "Error [INVALID_INPUT]") || !strings.Contains(buf.String(), "metacrew.yaml") {
		t.Fatalf("unexpected text %q", buf.String())
	}
}
