package engine

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary is the final record of a finished session, handed to persistence
// when the workout is explicitly stopped.
type Summary struct {
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Duration  time.Duration `json:"duration"`
	RepCount  int           `json:"rep_count"`

	// Cadence statistics over the intervals between counted reps. Zero when
	// fewer than two reps were counted.
	MeanRepIntervalSec   float64 `json:"mean_rep_interval_sec"`
	RepIntervalStddevSec float64 `json:"rep_interval_stddev_sec"`
	CadenceRPM           float64 `json:"cadence_rpm"`

	RepTimes []time.Time `json:"rep_times,omitempty"`
}

// Finish freezes the session into a Summary. The session itself is not
// usable afterwards by convention; callers drop their reference.
func (s *Session) Finish(at time.Time) Summary {
	sum := Summary{
		StartedAt: s.startedAt,
		EndedAt:   at,
		Duration:  at.Sub(s.startedAt),
		RepCount:  s.repCount,
		RepTimes:  append([]time.Time(nil), s.repTimes...),
	}

	if len(s.repTimes) >= 2 {
		intervals := make([]float64, len(s.repTimes)-1)
		for i := 1; i < len(s.repTimes); i++ {
			intervals[i-1] = s.repTimes[i].Sub(s.repTimes[i-1]).Seconds()
		}
		sum.MeanRepIntervalSec = stat.Mean(intervals, nil)
		sum.RepIntervalStddevSec = stat.StdDev(intervals, nil)
		if sum.MeanRepIntervalSec > 0 {
			sum.CadenceRPM = 60 / sum.MeanRepIntervalSec
		}
	}
	return sum
}
