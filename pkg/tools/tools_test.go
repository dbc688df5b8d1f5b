package tools

import (
	"context"
	"math"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	names := []string{}
	for _, tool := range reg.List() {
		names = append(names, tool.Name())
		if _, ok := tool.(Described); !ok {
			t.Errorf("tool %s should publish params", tool.Name())
		}
	}
	want := []string{MAMLName, SSMName, AdaptationName}
	if len(names) != len(want) {
		t.Fatalf("unexpected tools: %v", names)
	}
	if names[0] != MAMLName || names[1] != SSMName || names[2] != AdaptationName {
		t.Fatalf("tools should be sorted by name, got %v", names)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("unexpected tool for unknown name")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry(NewSSM(), NewSSM()); err == nil {
		t.Fatal("expected duplicate tool error")
	}
}

func TestAdaptationSimulation(t *testing.T) {
	tests := []struct {
		name        string
		in          AdaptationInput
		initial     float64
		improvement float64
		converged   bool
	}{
		{name: "defaults", in: AdaptationInput{}, initial: 0.65, improvement: 0.15, converged: true},
		{name: "few steps", in: AdaptationInput{AdaptationSteps: 2, CurrentPerformance: 0.5}, initial: 0.5, improvement: 0.06, converged: false},
		{name: "capped", in: AdaptationInput{AdaptationSteps: 20, CurrentPerformance: 0.4}, initial: 0.4, improvement: 0.25, converged: true},
	}
	tool := NewAdaptation()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tool.Run(context.Background(), tt.in)
			if !res.OK() {
				t.Fatalf("unexpected failure: %s", res.ErrorMessage)
			}
			if math.Abs(res.Performance.Improvement-tt.improvement) > 1e-9 {
				t.Fatalf("improvement = %v, want %v", res.Performance.Improvement, tt.improvement)
			}
			if res.Performance.InitialPerformance != tt.initial {
				t.Fatalf("initial = %v, want %v", res.Performance.InitialPerformance, tt.initial)
			}
			if res.ConvergenceAchieved != tt.converged {
				t.Fatalf("converged = %v, want %v", res.ConvergenceAchieved, tt.converged)
			}
			if len(res.History) != res.Config.AdaptationSteps+1 {
				t.Fatalf("history length = %d, want %d", len(res.History), res.Config.AdaptationSteps+1)
			}
			last := res.History[len(res.History)-1]
			if math.Abs(last-res.Performance.FinalPerformance) > 1e-9 {
				t.Fatalf("history should end at final performance, got %v", last)
			}
		})
	}
}

func TestToolsReportInvalidInputAsStatus(t *testing.T) {
	ctx := context.Background()
	if res := NewAdaptation().Run(ctx, AdaptationInput{AdaptationSteps: -1}); res.Status != StatusError {
		t.Fatalf("expected error status, got %s", res.Status)
	}
	if res := NewSSM().Run(ctx, SSMInput{StateDim: -4}); res.Status != StatusError || res.ErrorMessage == "" {
		t.Fatalf("expected error status with message, got %+v", res.Outcome)
	}
	if res := NewMAML().Run(ctx, MAMLInput{AdaptationSteps: -2}); res.Status != StatusError {
		t.Fatalf("expected error status, got %s", res.Status)
	}
}

func TestCallDecodesLooseInput(t *testing.T) {
	ctx := context.Background()

	out, err := NewSSM().Call(ctx, map[string]any{
		"sequence_data":    []any{1, 2, 3},
		"prediction_steps": 7,
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	res, ok := out.(SSMResult)
	if !ok {
		t.Fatalf("unexpected output type %T", out)
	}
	if res.SequenceLength != 3 || res.PredictionSteps != 7 || res.Architecture.StateDim != 64 {
		t.Fatalf("unexpected result: %+v", res)
	}

	out, err = NewMAML().Call(ctx, `{"tasks":[{"id":"a"},{"id":"b"}],"inner_lr":0.05}`)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	mres := out.(MAMLResult)
	if mres.TasksProcessed != 2 || mres.InnerLRUsed != 0.05 || mres.OuterLRUsed != 0.001 {
		t.Fatalf("unexpected result: %+v", mres)
	}

	out, err = NewAdaptation().Call(ctx, "{not json")
	if err != nil {
		t.Fatalf("decode failures must not escape as errors: %v", err)
	}
	if out.(AdaptationResult).Status != StatusError {
		t.Fatal("expected error status for malformed input")
	}
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := NewSSM().Run(ctx, SSMInput{}); res.Status != StatusError {
		t.Fatal("expected error status for canceled context")
	}
}

func TestGuardRecoversPanics(t *testing.T) {
	out := guard("boom", func(msg string) Outcome { return failed(msg) }, func() Outcome {
		panic("kaboom")
	})
	if out.Status != StatusError || out.ErrorMessage != "tool boom panicked: kaboom" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestSequenceLength(t *testing.T) {
	if sequenceLength("sample_sequence_data") != 0 {
		t.Fatal("strings are not sequences")
	}
	if sequenceLength([3]float64{}) != 3 {
		t.Fatal("arrays report their length")
	}
	if sequenceLength(nil) != 0 {
		t.Fatal("nil has no length")
	}
}
