package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/jllopis/metacrew/pkg/errors"
	"github.com/jllopis/metacrew/pkg/store"
)

// Status tags a CollaborationResult.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// CollaborationResult is the outcome of one SolveTask call. Error results
// carry zeroed metrics.
type CollaborationResult struct {
	Status                Status           `json:"status"`
	RawResults            any              `json:"raw_results,omitempty"`
	ImprovementPct        float64          `json:"improvement_pct"`
	EmergentStrategyCount int              `json:"emergent_strategy_count"`
	CollaborationScore    float64          `json:"collaboration_score"`
	ErrorMessage          string           `json:"error_message,omitempty"`
	ErrorCode             errors.ErrorCode `json:"error_code,omitempty"`
	RunID                 string           `json:"run_id"`
	TaskName              string           `json:"task_name"`
	Mode                  string           `json:"mode"`
	TaskCount             int              `json:"task_count"`
	StartedAt             time.Time        `json:"started_at"`
	Duration              time.Duration    `json:"duration"`
}

// OK reports whether the collaboration succeeded.
func (r CollaborationResult) OK() bool { return r.Status == StatusSuccess }

// Report renders the result for terminals.
func (r CollaborationResult) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s (mode %s, %d tasks)\n", r.TaskName, r.Mode, r.TaskCount)
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	if !r.OK() {
		fmt.Fprintf(&b, "Error: %s", r.ErrorMessage)
		if r.ErrorCode != "" {
			fmt.Fprintf(&b, " [%s]", r.ErrorCode)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Performance improvement: %.1f%%\n", r.ImprovementPct)
	fmt.Fprintf(&b, "Emergent strategies: %d\n", r.EmergentStrategyCount)
	if r.OK() {
		fmt.Fprintf(&b, "Collaboration effectiveness: %.2f\n", r.CollaborationScore)
	}
	fmt.Fprintf(&b, "Duration: %s\n", r.Duration.Round(time.Microsecond))
	return b.String()
}

// Record converts the result into a history record.
func (r CollaborationResult) Record() store.Record {
	return store.Record{
		RunID:                 r.RunID,
		TaskName:              r.TaskName,
		Mode:                  r.Mode,
		Status:                string(r.Status),
		TaskCount:             r.TaskCount,
		ImprovementPct:        r.ImprovementPct,
		EmergentStrategyCount: r.EmergentStrategyCount,
		CollaborationScore:    r.CollaborationScore,
		ErrorCode:             string(r.ErrorCode),
		ErrorMessage:          r.ErrorMessage,
		RawResults:            r.RawResults,
		StartedAt:             r.StartedAt,
		Duration:              r.Duration,
	}
}

// failed turns r into an error result for err.
func failed(r CollaborationResult, err error) CollaborationResult {
	r.Status = StatusError
	r.ErrorMessage = errors.Message(err)
	r.ErrorCode = errors.CodeOf(err)
	r.RawResults = nil
	r.ImprovementPct = 0
	r.EmergentStrategyCount = 0
	r.CollaborationScore = 0
	return r
}
