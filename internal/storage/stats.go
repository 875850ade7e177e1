package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/repcount/internal/models"
)

// DailyTotal aggregates counted reps per calendar day.
type DailyTotal struct {
	Day      time.Time `json:"day"`
	Sessions int       `json:"sessions"`
	RepCount int       `json:"rep_count"`
}

// TrainingStats summarizes a time range for the stats endpoint and MCP tools.
type TrainingStats struct {
	Sessions      int     `json:"sessions"`
	TotalReps     int     `json:"total_reps"`
	TotalDuration float64 `json:"total_duration_sec"`
	BestRepCount  int     `json:"best_rep_count"`
	AvgCadenceRPM float64 `json:"avg_cadence_rpm"`
}

// GetDailyTotals returns per-day session and rep totals in a time range.
func (db *DB) GetDailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotal, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc('day', started_at) AS day, COUNT(*), COALESCE(SUM(rep_count), 0)
		 FROM sessions
		 WHERE started_at >= $1 AND started_at < $2
		 GROUP BY day ORDER BY day ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying daily totals: %w", err)
	}
	defer rows.Close()

	var result []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Day, &d.Sessions, &d.RepCount); err != nil {
			return nil, fmt.Errorf("scanning daily total: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetTrainingStats returns aggregate statistics over a time range.
func (db *DB) GetTrainingStats(ctx context.Context, start, end time.Time) (*TrainingStats, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(rep_count), 0),
		        COALESCE(SUM(duration_sec), 0),
		        COALESCE(MAX(rep_count), 0),
		        COALESCE(AVG(cadence_rpm) FILTER (WHERE cadence_rpm > 0), 0)
		 FROM sessions
		 WHERE started_at >= $1 AND started_at < $2`,
		start, end)

	var s TrainingStats
	if err := row.Scan(&s.Sessions, &s.TotalReps, &s.TotalDuration, &s.BestRepCount, &s.AvgCadenceRPM); err != nil {
		return nil, fmt.Errorf("querying training stats: %w", err)
	}
	return &s, nil
}

// GetBestSession returns the session with the highest rep count in a range,
// or nil when the range is empty.
func (db *DB) GetBestSession(ctx context.Context, start, end time.Time) (*models.SessionRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, started_at, ended_at, duration_sec, rep_count,
		 mean_rep_interval_sec, rep_interval_stddev_sec, cadence_rpm
		 FROM sessions
		 WHERE started_at >= $1 AND started_at < $2
		 ORDER BY rep_count DESC, started_at DESC
		 LIMIT 1`,
		start, end)

	var s models.SessionRow
	err := row.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.DurationSec, &s.RepCount,
		&s.MeanRepIntervalSec, &s.RepIntervalStddevSec, &s.CadenceRPM)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying best session: %w", err)
	}
	return &s, nil
}
