package core

import (
	"context"
	"strings"
	"testing"
)

func TestNewTaskDescriptorKeepsProducer(t *testing.T) {
	role := &Role{Kind: RoleStateModeling, Name: "State Space Modeling Expert"}
	meta := map[string]string{"prediction_horizon": "10"}

	td := NewTaskDescriptor(role, "model dynamics", "trained SSM", meta)
	if td.ID == "" {
		t.Fatal("expected generated id")
	}
	if td.ProducedBy != role {
		t.Fatal("expected producer pointer to be preserved")
	}
	if td.Kind != RoleStateModeling {
		t.Fatalf("expected kind from producer, got %q", td.Kind)
	}
	if td.ProducerName() != "State Space Modeling Expert" {
		t.Fatalf("unexpected producer name %q", td.ProducerName())
	}

	meta["prediction_horizon"] = "99"
	if td.Metadata["prediction_horizon"] != "10" {
		t.Fatal("metadata must be copied at construction")
	}
}

func TestNilDescriptorProducerName(t *testing.T) {
	var td *TaskDescriptor
	if td.ProducerName() != "" {
		t.Fatal("expected empty name for nil descriptor")
	}
}

func TestParseRoleKind(t *testing.T) {
	tests := []struct {
		in      string
		want    RoleKind
		wantErr bool
	}{
		{in: "meta_learning", want: RoleMetaLearning},
		{in: "Meta-Learning", want: RoleMetaLearning},
		{in: "state modeling", want: RoleStateModeling},
		{in: "coordinator", want: RoleCoordinator},
		{in: "critic", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoleKind(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapabilitySetAndClone(t *testing.T) {
	caps := CapabilitySet("ssm", " ", "temporal", "ssm")
	if strings.Join(caps, ",") != "ssm,temporal" {
		t.Fatalf("unexpected capability set %v", caps)
	}

	role := Role{Name: "r", Capabilities: caps, Tools: []string{"state_space_model"}}
	if !role.HasCapability("temporal") || role.HasCapability("maml") {
		t.Fatal("unexpected HasCapability result")
	}
	clone := role.Clone()
	clone.Capabilities[0] = "changed"
	clone.Tools[0] = "changed"
	if role.Capabilities[0] != "ssm" || role.Tools[0] != "state_space_model" {
		t.Fatal("clone must not share slices")
	}
}

func TestDispatchOrderIsFresh(t *testing.T) {
	order := DispatchOrder()
	order[0] = RoleCoordinator
	if DispatchOrder()[0] != RoleMetaLearning {
		t.Fatal("DispatchOrder must return a fresh slice")
	}
}

func TestEnsureRunID(t *testing.T) {
	ctx, id := EnsureRunID(context.Background())
	if !strings.HasPrefix(id, "run-") {
		t.Fatalf("unexpected run id %q", id)
	}
	_, again := EnsureRunID(ctx)
	if again != id {
		t.Fatalf("expected existing run id to be reused")
	}
}

func TestTaskEventCarriesRunAndKind(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-42")
	role := &Role{Kind: RoleAdaptation, Name: "Adapter"}
	task := NewTaskDescriptor(role, "adapt", "curve", nil)

	ev := TaskEvent(ctx, EventTaskDelegated, task, "Lead", map[string]any{"producer": "Adapter"})
	if ev.RunID != "run-42" || ev.Kind != RoleAdaptation || ev.TaskID != task.ID || ev.Agent != "Lead" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Fatal("expected timestamp")
	}

	batch := BatchEvent(context.Background(), EventBatchSubmit, "Lead", nil)
	if batch.RunID != "" || batch.TaskID != "" || batch.Kind != "" {
		t.Fatalf("batch event without run must stay empty, got %+v", batch)
	}
}
