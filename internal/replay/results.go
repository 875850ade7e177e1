package replay

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ResultsDB keeps a local log of replay runs so repeated tuning experiments
// on the same recordings can be compared.
type ResultsDB struct {
	db *sql.DB
}

// RunRecord is one logged replay run.
type RunRecord struct {
	ID          int64
	Source      string
	RunAt       time.Time
	Frames      int
	RepCount    int
	DurationSec float64
	CadenceRPM  float64
}

// OpenResultsDB opens (or creates) the SQLite results database at
// dir/replay.db.
func OpenResultsDB(dir string) (*ResultsDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "replay.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening results db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS replay_runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		source       TEXT NOT NULL,
		run_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		frames       INTEGER NOT NULL,
		rep_count    INTEGER NOT NULL,
		duration_sec REAL NOT NULL,
		cadence_rpm  REAL NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results table: %w", err)
	}

	return &ResultsDB{db: db}, nil
}

// RecordRun logs one replay run and returns its row ID.
func (r *ResultsDB) RecordRun(source string, res *Result) (int64, error) {
	out, err := r.db.Exec(
		`INSERT INTO replay_runs (source, frames, rep_count, duration_sec, cadence_rpm)
		 VALUES (?, ?, ?, ?, ?)`,
		source, res.Frames, res.Summary.RepCount,
		res.Summary.Duration.Seconds(), res.Summary.CadenceRPM,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return out.LastInsertId()
}

// ListRuns returns the most recent runs for a source, newest first. An empty
// source matches all runs.
func (r *ResultsDB) ListRuns(source string, limit int) ([]RunRecord, error) {
	query := `SELECT id, source, run_at, frames, rep_count, duration_sec, cadence_rpm
	          FROM replay_runs`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var result []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.RunAt, &rec.Frames,
			&rec.RepCount, &rec.DurationSec, &rec.CadenceRPM); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Close closes the results database.
func (r *ResultsDB) Close() error {
	return r.db.Close()
}
