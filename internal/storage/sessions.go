package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcount/internal/models"
)

// InsertSession inserts a finished session row. Returns true if inserted,
// false if the session ID was already stored.
func (db *DB) InsertSession(ctx context.Context, row models.SessionRow) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, duration_sec, rep_count,
		 mean_rep_interval_sec, rep_interval_stddev_sec, cadence_rpm)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT DO NOTHING`,
		row.ID, row.StartedAt, row.EndedAt, row.DurationSec, row.RepCount,
		row.MeanRepIntervalSec, row.RepIntervalStddevSec, row.CadenceRPM)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertReps batch-inserts the per-rep timestamps for a session. Returns the
// count inserted.
func (db *DB) InsertReps(ctx context.Context, rows []models.RepRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO reps (session_id, rep_number, counted_at) VALUES `
	args := make([]any, 0, len(rows)*3)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		args = append(args, r.SessionID, r.RepNumber, r.CountedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting reps: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SessionDetail is a session with its per-rep timestamps.
type SessionDetail struct {
	models.SessionRow
	Reps []models.RepRow `json:"reps"`
}

// QuerySessions retrieves sessions in a time range, newest first.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time) ([]models.SessionRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, started_at, ended_at, duration_sec, rep_count,
		 mean_rep_interval_sec, rep_interval_stddev_sec, cadence_rpm
		 FROM sessions
		 WHERE started_at >= $1 AND started_at < $2
		 ORDER BY started_at DESC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionRow
	for rows.Next() {
		var s models.SessionRow
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.DurationSec, &s.RepCount,
			&s.MeanRepIntervalSec, &s.RepIntervalStddevSec, &s.CadenceRPM); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSession retrieves a single session with its rep timestamps.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*SessionDetail, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, started_at, ended_at, duration_sec, rep_count,
		 mean_rep_interval_sec, rep_interval_stddev_sec, cadence_rpm
		 FROM sessions WHERE id = $1`,
		id)

	var s models.SessionRow
	err := row.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.DurationSec, &s.RepCount,
		&s.MeanRepIntervalSec, &s.RepIntervalStddevSec, &s.CadenceRPM)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	detail := &SessionDetail{SessionRow: s}

	repRows, err := db.Pool.Query(ctx,
		`SELECT session_id, rep_number, counted_at
		 FROM reps WHERE session_id = $1 ORDER BY rep_number ASC`,
		id)
	if err != nil {
		return nil, fmt.Errorf("querying reps: %w", err)
	}
	defer repRows.Close()

	for repRows.Next() {
		var r models.RepRow
		if err := repRows.Scan(&r.SessionID, &r.RepNumber, &r.CountedAt); err != nil {
			return nil, fmt.Errorf("scanning rep: %w", err)
		}
		detail.Reps = append(detail.Reps, r)
	}
	return detail, repRows.Err()
}
