// Package database defines the insertions and transactions to the database
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// InferenceLog is one answered (or failed) question.
type InferenceLog struct {
	RequestID   string
	Section     string
	ModelID     string
	Outcome     string
	StatusCode  int
	PromptChars int
	OutputChars int
	TotalTime   time.Duration
	Cached      bool
	CreatedAt   time.Time
}

type DailyStats struct {
	Date         string
	Section      string
	ModelID      string
	RequestCount uint64
	FailedCount  uint64
	CachedCount  uint64
	TotalTime    int64
}

// Store persists inference logs to MySQL.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveInferenceLogs writes logs and their daily aggregates in one transaction.
func (s *Store) SaveInferenceLogs(ctx context.Context, logs []InferenceLog) error {
	if len(logs) == 0 {
		return nil
	}
	return ExecuteTransaction(ctx, s.db, []func(*sql.Tx) error{
		func(tx *sql.Tx) error {
			query, args := buildLogInsert(logs)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to save inference logs: %w", err)
			}
			return nil
		},
		func(tx *sql.Tx) error {
			query, args := buildStatsUpsert(aggregate(logs))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to save daily stats: %w", err)
			}
			return nil
		},
	})
}

func buildLogInsert(logs []InferenceLog) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO inference_log (
		request_id, section, model_id, outcome, status_code,
		prompt_chars, output_chars, total_time, cached, created_at
	) VALUES `)
	args := make([]any, 0, len(logs)*10)
	for i, l := range logs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			l.RequestID, l.Section, l.ModelID, l.Outcome, l.StatusCode,
			l.PromptChars, l.OutputChars, l.TotalTime.Milliseconds(), l.Cached, l.CreatedAt,
		)
	}
	return sb.String(), args
}

// aggregate groups logs by (date, section, model) in first-seen order.
func aggregate(logs []InferenceLog) []*DailyStats {
	var order []*DailyStats
	byKey := map[string]*DailyStats{}
	for _, l := range logs {
		date := l.CreatedAt.Format("2006-01-02")
		key := date + "|" + l.Section + "|" + l.ModelID
		st, ok := byKey[key]
		if !ok {
			st = &DailyStats{Date: date, Section: l.Section, ModelID: l.ModelID}
			byKey[key] = st
			order = append(order, st)
		}
		st.RequestCount++
		st.TotalTime += l.TotalTime.Milliseconds()
		if l.Outcome != "text" {
			st.FailedCount++
		}
		if l.Cached {
			st.CachedCount++
		}
	}
	return order
}

func buildStatsUpsert(stats []*DailyStats) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO inference_daily_stats (
		date, section, model_id, request_count, failed_count, cached_count, total_time
	) VALUES `)
	args := make([]any, 0, len(stats)*7)
	for i, st := range stats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, st.Date, st.Section, st.ModelID, st.RequestCount, st.FailedCount, st.CachedCount, st.TotalTime)
	}
	sb.WriteString(` ON DUPLICATE KEY UPDATE
		request_count = request_count + VALUES(request_count),
		failed_count = failed_count + VALUES(failed_count),
		cached_count = cached_count + VALUES(cached_count),
		total_time = total_time + VALUES(total_time)`)
	return sb.String(), args
}

// ExecuteTransaction executes one transaction with one or multiple database executions.
func ExecuteTransaction(ctx context.Context, writeDB *sql.DB, fns []func(*sql.Tx) error) error {
	tx, err := writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, fn := range fns {
		if err := fn(tx); err != nil {
			return fmt.Errorf("failed to execute transaction function: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
