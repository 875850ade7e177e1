package engine

import (
	"fmt"
	"time"

	"github.com/claude/repcount/internal/pose"
)

// Phase is the lock-in state of a session.
type Phase int

const (
	PhaseAwaitingLock Phase = iota
	PhaseLocked
)

func (p Phase) String() string {
	if p == PhaseLocked {
		return "locked"
	}
	return "awaiting_lock"
}

// Session is the stateful rep-counting pipeline for one workout: position
// gate, angle smoother, and hysteresis rep machine behind a single frame-at-a-
// time entry point. It owns its state exclusively and performs no I/O; it is
// not safe for concurrent use — callers serialize frame delivery and must
// supply non-decreasing timestamps.
type Session struct {
	tuning    Tuning
	startedAt time.Time

	phase      Phase
	lockStreak int
	badStreak  int

	smoother smoother
	machine  repMachine

	repCount int
	repTimes []time.Time

	lastStatus string
}

// NewSession creates a session awaiting lock-in.
func NewSession(t Tuning, startedAt time.Time) *Session {
	return &Session{
		tuning:    t,
		startedAt: startedAt,
		smoother:  smoother{alpha: t.SmoothingFactor},
	}
}

// ProcessFrame advances the session by one pose frame. A nil frame means the
// model found no subject. The returned events are the only observable output;
// every failure mode is absorbed into streak counters and status text, never
// an error.
func (s *Session) ProcessFrame(f *pose.Frame, at time.Time) []Event {
	gr := CheckPosition(f, s.tuning)
	if s.phase == PhaseAwaitingLock {
		return s.processAwaitingLock(gr)
	}
	return s.processLocked(f, gr, at)
}

func (s *Session) processAwaitingLock(gr GateResult) []Event {
	var events []Event
	if !gr.OK {
		// Decrement with a floor instead of resetting, so single-frame
		// tracking flicker doesn't restart the whole lock-in.
		if s.lockStreak > 0 {
			s.lockStreak--
		}
		return s.appendStatus(events, "bad posture: "+gr.Reason.String())
	}

	s.lockStreak++
	if s.lockStreak < s.tuning.BodyReadyThreshold {
		return s.appendStatus(events,
			fmt.Sprintf("locking in, %d/%d", s.lockStreak, s.tuning.BodyReadyThreshold))
	}

	s.phase = PhaseLocked
	s.machine = repMachine{stage: StageUp}
	s.smoother.reseed(s.tuning.NeutralAngleDeg)
	s.badStreak = 0
	events = append(events, Event{Kind: EventReadiness, Locked: true})
	return s.appendStatus(events, "ready")
}

func (s *Session) processLocked(f *pose.Frame, gr GateResult, at time.Time) []Event {
	var events []Event
	if !gr.OK {
		// Posture lapses don't undo lock-in. Below the tolerance the frame
		// still feeds the smoother and rep machine so a transient tracking
		// glitch can't break an excursion in progress; at the tolerance the
		// frame is processed no further for counting. A single passing frame
		// resumes counting either way.
		s.badStreak++
		if s.badStreak >= s.tuning.BadFrameTolerance {
			return s.appendStatus(events, "counting suspended: "+gr.Reason.String())
		}
		events = s.appendStatus(events, "bad posture: "+gr.Reason.String())
	} else {
		s.badStreak = 0
	}

	raw, ok := ElbowAngle(f, s.tuning.VisibilityThreshold)
	if !ok {
		// Neither arm fully visible: the frame is skipped for counting but
		// the session stays locked.
		return events
	}

	smoothed := s.smoother.update(raw)
	if s.machine.advance(smoothed, at, s.tuning) {
		s.repCount++
		s.repTimes = append(s.repTimes, at)
		milestone := s.tuning.MilestoneEvery > 0 && s.repCount%s.tuning.MilestoneEvery == 0
		events = append(events, Event{Kind: EventRep, RepCount: s.repCount, Milestone: milestone})
		events = s.appendStatus(events, fmt.Sprintf("rep %d", s.repCount))
	}
	return events
}

// appendStatus emits a status event only when the text actually changed, so
// a subject holding a bad posture doesn't flood collaborators every frame.
func (s *Session) appendStatus(events []Event, status string) []Event {
	if status == s.lastStatus {
		return events
	}
	s.lastStatus = status
	return append(events, Event{Kind: EventStatus, Status: status})
}

// Snapshot is a point-in-time read copy of session state for synchronous
// queries.
type Snapshot struct {
	RepCount int    `json:"rep_count"`
	Phase    string `json:"phase"`
	Stage    string `json:"stage"`
	Locked   bool   `json:"locked"`
}

// Snapshot returns the current counters without mutating anything; two calls
// with no intervening frame return identical results.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		RepCount: s.repCount,
		Phase:    s.phase.String(),
		Stage:    s.machine.stage.String(),
		Locked:   s.phase == PhaseLocked,
	}
}

// RepCount returns the number of counted reps.
func (s *Session) RepCount() int { return s.repCount }
