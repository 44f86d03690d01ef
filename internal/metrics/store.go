// Package metrics persists one usage sample per reconciler operation so the
// dashboard can show how the planner is actually used.
package metrics

import (
	"context"
	"fmt"
	"time"

	"dispensa/internal/database"
)

// OperationMetric records metadata for a single reconciler operation run.
type OperationMetric struct {
	Operation string    `db:"operation"`
	Items     int       `db:"items"`
	LatencyMS int64     `db:"latency_ms"`
	Timestamp time.Time `db:"timestamp"`
}

// Store handles persistence of operation metrics.
type Store struct {
	db *database.DB
}

// NewStore creates a Store on an open database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Record saves one sample.
func (s *Store) Record(ctx context.Context, operation string, items int, elapsed time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operation_metrics (operation, items, latency_ms, timestamp) VALUES (?, ?, ?, ?)`,
		operation, items, elapsed.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record operation metric: %w", err)
	}
	return nil
}

// DailyUsage represents per-day, per-operation totals.
type DailyUsage struct {
	Date       string `db:"day" json:"date"`
	Operation  string `db:"operation" json:"operation"`
	Runs       int    `db:"runs" json:"runs"`
	TotalItems int    `db:"total_items" json:"total_items"`
	AvgLatency int64  `db:"avg_latency_ms" json:"avg_latency_ms"`
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)

	var rows []DailyUsage
	err := s.db.SelectContext(ctx, &rows, `
		SELECT date(timestamp) AS day,
		       operation,
		       COUNT(*) AS runs,
		       COALESCE(SUM(items), 0) AS total_items,
		       COALESCE(CAST(AVG(latency_ms) AS INTEGER), 0) AS avg_latency_ms
		FROM operation_metrics
		WHERE timestamp >= ?
		GROUP BY day, operation
		ORDER BY day DESC, operation ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	return rows, nil
}

// Cleanup removes samples older than the given number of days and returns how
// many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	res, err := s.db.ExecContext(ctx, `DELETE FROM operation_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}
