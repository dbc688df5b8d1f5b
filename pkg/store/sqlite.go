package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed store and ensures its schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Record stores a single record.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	raw, err := encodeResults(rec.RawResults)
	if err != nil {
		// Raw results are opaque; keep the row even when they do not encode.
		raw = []byte("null")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collaboration_results (
			run_id, task_name, mode, status, task_count, improvement_pct,
			emergent_strategies, collaboration_score, error_code, error_message,
			results_json, started_at, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.TaskName,
		rec.Mode,
		rec.Status,
		rec.TaskCount,
		rec.ImprovementPct,
		rec.EmergentStrategyCount,
		rec.CollaborationScore,
		rec.ErrorCode,
		rec.ErrorMessage,
		string(raw),
		normalizeTime(rec.StartedAt),
		int64(rec.Duration),
	)
	return err
}

// List returns records matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `
		SELECT run_id, task_name, mode, status, task_count, improvement_pct,
			emergent_strategies, collaboration_score, error_code, error_message,
			results_json, started_at, duration_ns
		FROM collaboration_results
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.TaskName != "" {
		addFilter("task_name = ?", filter.TaskName)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec         Record
			resultsJSON sql.NullString
			started     sql.NullTime
			durationNS  int64
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.TaskName,
			&rec.Mode,
			&rec.Status,
			&rec.TaskCount,
			&rec.ImprovementPct,
			&rec.EmergentStrategyCount,
			&rec.CollaborationScore,
			&rec.ErrorCode,
			&rec.ErrorMessage,
			&resultsJSON,
			&started,
			&durationNS,
		); err != nil {
			return nil, err
		}
		if resultsJSON.Valid {
			if out, err := decodeResults([]byte(resultsJSON.String)); err == nil {
				rec.RawResults = out
			}
		}
		if started.Valid {
			rec.StartedAt = started.Time
		}
		rec.Duration = time.Duration(durationNS)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS collaboration_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			task_name TEXT NOT NULL,
			mode TEXT,
			status TEXT NOT NULL,
			task_count INTEGER NOT NULL DEFAULT 0,
			improvement_pct REAL NOT NULL DEFAULT 0,
			emergent_strategies INTEGER NOT NULL DEFAULT 0,
			collaboration_score REAL NOT NULL DEFAULT 0,
			error_code TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			results_json TEXT,
			started_at TIMESTAMP,
			duration_ns INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_collaboration_results_task ON collaboration_results(task_name);
		CREATE INDEX IF NOT EXISTS idx_collaboration_results_status ON collaboration_results(status);
	`)
	return err
}
