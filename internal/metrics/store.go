package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nutri-planner/internal/shared"
)

// ExecutionMetric records metadata for a single generation call.
type ExecutionMetric struct {
	Stage            string
	Model            string
	GenerationSource string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_metrics (stage, model, generation_source, prompt_tokens, completion_tokens, latency_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Stage, m.Model, m.GenerationSource, m.PromptTokens, m.CompletionTokens, m.LatencyMS, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution metric: %w", err)
	}
	return nil
}

// RecordGeneration records metrics directly from a call's shared.CallMeta,
// tagged with the plan's generation source. Calls that never reached the
// model carry no usage and are skipped.
func (s *Store) RecordGeneration(ctx context.Context, meta shared.CallMeta, source string) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(ctx, ExecutionMetric{
		Stage:            meta.Stage,
		Model:            meta.Usage.Model,
		GenerationSource: source,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		LatencyMS:        meta.Latency.Milliseconds(),
	})
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(timestamp) AS day, SUM(prompt_tokens), SUM(completion_tokens), COUNT(*)
		 FROM execution_metrics WHERE timestamp >= ?
		 GROUP BY day ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		var prompt, completion sql.NullFloat64
		if err := rows.Scan(&u.Date, &prompt, &completion, &u.TotalExecution); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage row: %w", err)
		}
		if prompt.Valid {
			u.TotalPrompt = int(prompt.Float64)
		}
		if completion.Valid {
			u.TotalCompletion = int(completion.Float64)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(ctx, `DELETE FROM execution_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up execution metrics: %w", err)
	}
	return res.RowsAffected()
}
