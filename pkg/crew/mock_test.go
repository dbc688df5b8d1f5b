package crew

import (
	"context"
	"testing"

	"github.com/jllopis/metacrew/pkg/errors"
)

func TestMockEngineEchoesTasks(t *testing.T) {
	m := &MockEngine{}
	tasks := testTasks()
	out, err := m.Kickoff(context.Background(), Submission{Tasks: tasks, Manager: testManager, Process: ProcessHierarchical})
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if len(out.TaskResults) != len(tasks) || out.Final != "mock result for coordinator" {
		t.Fatalf("unexpected output %+v", out)
	}
	sub, ok := m.LastSubmission()
	if !ok || sub.Manager.Name != "Lead" || len(m.Calls()) != 1 {
		t.Fatalf("submission not recorded: %+v", sub)
	}
}

func TestFailingEngine(t *testing.T) {
	_, err := (&FailingEngine{}).Kickoff(context.Background(), Submission{})
	if !errors.Is(err, errors.CodeSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
}

func TestPanicEngine(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("recovered %v, want boom", r)
		}
	}()
	_, _ = (&PanicEngine{Value: "boom"}).Kickoff(context.Background(), Submission{})
	t.Fatal("expected panic")
}
