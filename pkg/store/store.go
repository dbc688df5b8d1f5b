// Package store keeps a history of collaboration results.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Record is one persisted collaboration result.
type Record struct {
	RunID                 string        `json:"run_id"`
	TaskName              string        `json:"task_name"`
	Mode                  string        `json:"mode"`
	Status                string        `json:"status"`
	TaskCount             int           `json:"task_count"`
	ImprovementPct        float64       `json:"improvement_pct"`
	EmergentStrategyCount int           `json:"emergent_strategy_count"`
	CollaborationScore    float64       `json:"collaboration_score"`
	ErrorCode             string        `json:"error_code,omitempty"`
	ErrorMessage          string        `json:"error_message,omitempty"`
	RawResults            any           `json:"raw_results,omitempty"`
	StartedAt             time.Time     `json:"started_at"`
	Duration              time.Duration `json:"duration"`
}

// Filter limits history queries. Results are newest first.
type Filter struct {
	TaskName string
	Status   string
	Limit    int
}

// ResultStore persists collaboration results.
type ResultStore interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
}

// Open returns the store for driver ("memory" or "sqlite") and a close
// function releasing its resources.
func Open(driver, dsn string) (ResultStore, func() error, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		if dsn == "" {
			return nil, nil, fmt.Errorf("sqlite store requires a dsn")
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		s, err := NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore returns an in-memory result store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends a record.
func (s *MemoryStore) Record(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.StartedAt = normalizeTime(rec.StartedAt)
	s.records = append(s.records, rec)
	return nil
}

// List returns filtered records, newest first.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if filter.TaskName != "" && rec.TaskName != filter.TaskName {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func encodeResults(raw any) ([]byte, error) {
	if raw == nil {
		return []byte("null"), nil
	}
	return json.Marshal(raw)
}

func decodeResults(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
