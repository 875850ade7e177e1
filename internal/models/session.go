package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRow is a finished counting session as stored in the sessions table.
type SessionRow struct {
	ID                   uuid.UUID `json:"id"`
	StartedAt            time.Time `json:"started_at"`
	EndedAt              time.Time `json:"ended_at"`
	DurationSec          float64   `json:"duration_sec"`
	RepCount             int       `json:"rep_count"`
	MeanRepIntervalSec   float64   `json:"mean_rep_interval_sec"`
	RepIntervalStddevSec float64   `json:"rep_interval_stddev_sec"`
	CadenceRPM           float64   `json:"cadence_rpm"`
}

// RepRow is one counted rep within a session.
type RepRow struct {
	SessionID uuid.UUID `json:"session_id"`
	RepNumber int       `json:"rep_number"`
	CountedAt time.Time `json:"counted_at"`
}
