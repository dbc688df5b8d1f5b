package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

type stubCaller struct {
	lastName string
	lastArgs map[string]interface{}
	result   *mcp.CallToolResult
	err      error
}

func (s *stubCaller) CallTool(_ context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	s.lastName = name
	s.lastArgs = args
	return s.result, s.err
}

func TestToolAdapter_Call_ParsesJSONInput(t *testing.T) {
	tool := mcp.Tool{
		Name: "state_space_model",
		InputSchema: mcp.ToolInputSchema{
			Type:     "object",
			Required: []string{"state_dim"},
		},
	}
	caller := &stubCaller{
		result: &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: `{"status":"success","state_dim_used":8}`}},
		},
	}

	adapter, err := NewToolAdapter(tool, caller)
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}
	out, err := adapter.Call(context.Background(), `{"state_dim":8}`)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	res, ok := out.(RemoteResult)
	if !ok || res["state_dim_used"] != float64(8) {
		t.Fatalf("unexpected output %#v", out)
	}
	if res.Err() != nil {
		t.Fatalf("unexpected tool error: %v", res.Err())
	}
	if caller.lastName != "state_space_model" || caller.lastArgs["state_dim"] != float64(8) {
		t.Fatalf("unexpected call %s %v", caller.lastName, caller.lastArgs)
	}
}

func TestToolAdapter_Call_EncodesStructInput(t *testing.T) {
	caller := &stubCaller{
		result: &mcp.CallToolResult{StructuredContent: map[string]interface{}{"status": "success"}},
	}
	adapter, err := NewToolAdapter(mcp.Tool{Name: "maml_optimizer"}, caller)
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}
	input := struct {
		InnerLR float64 `json:"inner_lr"`
	}{InnerLR: 0.05}
	if _, err := adapter.Call(context.Background(), input); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if caller.lastArgs["inner_lr"] != 0.05 {
		t.Fatalf("expected struct fields as args, got %v", caller.lastArgs)
	}
}

func TestToolAdapter_Call_ValidatesRequiredArgs(t *testing.T) {
	tool := mcp.Tool{
		Name:        "maml_optimizer",
		InputSchema: mcp.ToolInputSchema{Type: "object", Required: []string{"tasks"}},
	}
	adapter, err := NewToolAdapter(tool, &stubCaller{})
	if err != nil {
		t.Fatalf("NewToolAdapter error: %v", err)
	}
	_, err = adapter.Call(context.Background(), map[string]interface{}{"inner_lr": 0.1})
	if err == nil || !strings.Contains(err.Error(), "missing required field") {
		t.Fatalf("expected missing required field error, got %v", err)
	}
}

func TestToolAdapter_Call_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		result *mcp.CallToolResult
		want   string
	}{
		{name: "invalid json", input: "not json", want: "invalid JSON"},
		{name: "nil result", want: "result is nil"},
		{
			name:   "error result",
			result: &mcp.CallToolResult{IsError: true, Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "boom"}}},
			want:   "boom",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, _ := NewToolAdapter(mcp.Tool{Name: "x"}, &stubCaller{result: tc.result})
			_, err := adapter.Call(context.Background(), tc.input)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRemoteResultErr(t *testing.T) {
	ok := RemoteResult{"status": "success"}
	if ok.Err() != nil {
		t.Fatalf("unexpected error: %v", ok.Err())
	}
	failed := RemoteResult{"status": "error", "error_message": "state_dim must be positive"}
	if err := failed.Err(); err == nil || err.Error() != "state_dim must be positive" {
		t.Fatalf("unexpected error: %v", err)
	}
	if (RemoteResult{"text": "plain"}).Err() != nil {
		t.Fatal("text results carry no status")
	}
}

func TestNewToolAdapterValidation(t *testing.T) {
	if _, err := NewToolAdapter(mcp.Tool{}, &stubCaller{}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewToolAdapter(mcp.Tool{Name: "x"}, nil); err == nil {
		t.Fatal("expected error for nil caller")
	}
}
