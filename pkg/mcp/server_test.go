package mcp

import (
	"context"
	"testing"

	"github.com/jllopis/metacrew/pkg/tools"
)

func newTestClient(t *testing.T) (*Server, *Client) {
	t.Helper()
	srv := NewServer("metacrew-test", "dev", tools.Default())
	c, err := NewInProcessClient(context.Background(), srv)
	if err != nil {
		t.Fatalf("NewInProcessClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return srv, c
}

func TestServerPublishesRegistry(t *testing.T) {
	srv, c := newTestClient(t)

	if got := srv.ToolNames(); len(got) != 3 {
		t.Fatalf("expected 3 tools, got %v", got)
	}
	listed, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 listed tools, got %d", len(listed))
	}
	for _, tool := range listed {
		if tool.Name != tools.MAMLName {
			continue
		}
		if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "tasks" {
			t.Fatalf("unexpected required fields %v", tool.InputSchema.Required)
		}
		if _, ok := tool.InputSchema.Properties["inner_lr"]; !ok {
			t.Fatalf("missing inner_lr property: %v", tool.InputSchema.Properties)
		}
		return
	}
	t.Fatalf("maml tool not listed")
}

func TestRemoteToolsRoundTrip(t *testing.T) {
	_, c := newTestClient(t)

	remote, err := RemoteTools(context.Background(), c)
	if err != nil {
		t.Fatalf("RemoteTools: %v", err)
	}
	byName := map[string]*ToolAdapter{}
	for _, tool := range remote {
		byName[tool.Name()] = tool.(*ToolAdapter)
	}

	out, err := byName[tools.MAMLName].Call(context.Background(), tools.MAMLInput{
		Tasks: []map[string]any{{"support": 1}, {"support": 2}},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	res := out.(RemoteResult)
	if res["status"] != "success" || res["tasks_processed"] != float64(2) {
		t.Fatalf("unexpected maml result %v", res)
	}
}

func TestServerReportsToolFailure(t *testing.T) {
	_, c := newTestClient(t)

	result, err := c.CallTool(context.Background(), tools.SSMName, map[string]interface{}{"state_dim": -4})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected error result, got %+v", result)
	}
}

func TestToolSpecWithoutParams(t *testing.T) {
	spec := ToolSpec(plainTool{})
	if spec.Name != "plain" || spec.Description != "plain tool" {
		t.Fatalf("unexpected spec %+v", spec)
	}
	if len(spec.InputSchema.Properties) != 0 {
		t.Fatalf("expected no properties, got %v", spec.InputSchema.Properties)
	}
}

type plainTool struct{}

func (plainTool) Name() string                           { return "plain" }
func (plainTool) Description() string                    { return "plain tool" }
func (plainTool) Call(context.Context, any) (any, error) { return "ok", nil }
