package engine

import "time"

// Stage is the hysteresis state of the tracked elbow angle.
type Stage int

const (
	StageUp Stage = iota
	StageDown
)

func (s Stage) String() string {
	if s == StageDown {
		return "down"
	}
	return "up"
}

// repMachine is the two-state hysteresis machine that turns the smoothed
// angle into rep events. It never resets mid-session; lock-in re-creates it.
type repMachine struct {
	stage      Stage
	lastRep    time.Time
	hasLastRep bool
}

// advance feeds one smoothed angle sample. It returns whether a rep was
// counted. When the up-threshold is crossed inside the cooldown window the
// stage still advances to Up — otherwise the machine would wedge in Down —
// but no count is emitted; the rep is dropped, not queued.
func (m *repMachine) advance(angle float64, at time.Time, t Tuning) (counted bool) {
	switch {
	case m.stage == StageUp && angle < t.DownAngleDeg:
		m.stage = StageDown
	case m.stage == StageDown && angle > t.UpAngleDeg:
		m.stage = StageUp
		if !m.hasLastRep || at.Sub(m.lastRep) > t.RepCooldown {
			m.lastRep = at
			m.hasLastRep = true
			return true
		}
	}
	return false
}
