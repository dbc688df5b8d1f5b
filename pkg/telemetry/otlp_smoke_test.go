package telemetry

import (
	"context"
	"os"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

// TestOTLPSmoke pushes one solve span and the workflow instruments to a
// real collector.
func TestOTLPSmoke(t *testing.T) {
	if os.Getenv("METACREW_OTLP_SMOKE_TEST") != "1" {
		t.Skip("set METACREW_OTLP_SMOKE_TEST=1 to run")
	}
	endpoint := os.Getenv("METACREW_TELEMETRY_OTLP_ENDPOINT")
	if endpoint == "" {
		t.Skip("set METACREW_TELEMETRY_OTLP_ENDPOINT for the OTLP smoke test")
	}

	shutdown, err := InitWithConfig("metacrew-smoke", "dev", Config{
		Exporter:           "otlp",
		OTLPEndpoint:       endpoint,
		OTLPInsecure:       os.Getenv("METACREW_TELEMETRY_OTLP_INSECURE") == "true",
		OTLPTimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}

	instruments, err := NewWorkflowMetrics()
	if err != nil {
		t.Fatalf("NewWorkflowMetrics: %v", err)
	}

	ctx, span := otel.Tracer(TracerWorkflow).Start(context.Background(), "Workflow.SolveTask")
	span.SetAttributes(WorkflowAttributes("run-smoke", "HalfCheetah-v4", "emergent", "hierarchical")...)
	instruments.RecordSubmitted(ctx, 4)
	instruments.RecordSolve(ctx, "HalfCheetah-v4", "success", 120*time.Millisecond)
	span.SetAttributes(ResultAttributes("success", 4, "")...)
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
