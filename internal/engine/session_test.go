package engine

import (
	"testing"
	"time"

	"github.com/claude/repcount/internal/pose"
)

// sessionTuning disables smoothing so frames map 1:1 onto the angle sequence
// the rep machine sees, and shortens lock-in for test brevity.
func sessionTuning() Tuning {
	t := DefaultTuning()
	t.SmoothingFactor = 0
	t.BodyReadyThreshold = 5
	t.BadFrameTolerance = 3
	t.DownAngleDeg = 110
	t.UpAngleDeg = 145
	t.RepCooldown = 150 * time.Millisecond
	return t
}

var sessionBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// feedFrames pushes frames 100ms apart starting at the given offset and
// returns all events plus the count of rep events.
func feedFrames(s *Session, offset time.Duration, frames []*pose.Frame) ([]Event, int) {
	var events []Event
	reps := 0
	for i, f := range frames {
		at := sessionBase.Add(offset + time.Duration(i)*100*time.Millisecond)
		for _, ev := range s.ProcessFrame(f, at) {
			events = append(events, ev)
			if ev.Kind == EventRep {
				reps++
			}
		}
	}
	return events, reps
}

func lockIn(t *testing.T, s *Session) {
	t.Helper()
	frames := make([]*pose.Frame, sessionTuning().BodyReadyThreshold)
	for i := range frames {
		frames[i] = plankFrame(160)
	}
	events, _ := feedFrames(s, 0, frames)
	if snap := s.Snapshot(); !snap.Locked {
		t.Fatalf("session not locked after %d passing frames", len(frames))
	}
	found := false
	for _, ev := range events {
		if ev.Kind == EventReadiness && ev.Locked {
			found = true
		}
	}
	if !found {
		t.Fatal("no readiness event emitted on lock-in")
	}
}

// TestLockInRequiresConsecutiveEvidence verifies that threshold-1 passing
// frames plus one failure never locks, and that the failure decrements the
// streak instead of resetting it.
func TestLockInRequiresConsecutiveEvidence(t *testing.T) {
	tn := sessionTuning()
	s := NewSession(tn, sessionBase)

	frames := []*pose.Frame{
		plankFrame(160), plankFrame(160), plankFrame(160), plankFrame(160), // 4 of 5
		nil, // flicker: streak drops to 3
	}
	feedFrames(s, 0, frames)
	if snap := s.Snapshot(); snap.Locked {
		t.Fatal("locked despite never reaching the threshold")
	}

	// One more pass brings the net streak to 4: still short.
	feedFrames(s, 500*time.Millisecond, []*pose.Frame{plankFrame(160)})
	if snap := s.Snapshot(); snap.Locked {
		t.Fatal("locked at net streak 4, want threshold 5")
	}

	// The fifth net-positive frame locks.
	feedFrames(s, 600*time.Millisecond, []*pose.Frame{plankFrame(160)})
	if snap := s.Snapshot(); !snap.Locked {
		t.Fatal("not locked at net streak 5")
	}
}

// TestLockInStreakFloorsAtZero verifies repeated failures can't push the
// streak negative and stall later lock-in.
func TestLockInStreakFloorsAtZero(t *testing.T) {
	tn := sessionTuning()
	s := NewSession(tn, sessionBase)

	feedFrames(s, 0, []*pose.Frame{nil, nil, nil, nil, nil, nil})
	frames := make([]*pose.Frame, tn.BodyReadyThreshold)
	for i := range frames {
		frames[i] = plankFrame(160)
	}
	feedFrames(s, time.Second, frames)
	if snap := s.Snapshot(); !snap.Locked {
		t.Fatal("streak floor broken: threshold passes after failures should lock")
	}
}

// TestScenarioSingleRep runs the canonical angle sequence through a locked
// session: one full excursion across both thresholds yields exactly one rep
// and a final Up stage.
func TestScenarioSingleRep(t *testing.T) {
	s := NewSession(sessionTuning(), sessionBase)
	lockIn(t, s)

	frames := []*pose.Frame{}
	for _, a := range []float64{160, 150, 120, 95, 100, 140, 150, 160} {
		frames = append(frames, plankFrame(a))
	}
	_, reps := feedFrames(s, time.Second, frames)

	if reps != 1 {
		t.Errorf("reps = %d, want exactly 1", reps)
	}
	snap := s.Snapshot()
	if snap.RepCount != 1 {
		t.Errorf("rep count = %d, want 1", snap.RepCount)
	}
	if snap.Stage != "up" {
		t.Errorf("stage = %q, want up", snap.Stage)
	}
}

// TestCooldownSuppressesBackToBackReps verifies that a second excursion whose
// up-crossing lands inside the cooldown window advances the stage but not the
// count.
func TestCooldownSuppressesBackToBackReps(t *testing.T) {
	s := NewSession(sessionTuning(), sessionBase)
	lockIn(t, s)

	// First excursion: counted.
	s.ProcessFrame(plankFrame(95), sessionBase.Add(time.Second))
	s.ProcessFrame(plankFrame(160), sessionBase.Add(2*time.Second))

	// Second excursion completes 100ms after the first count: suppressed.
	s.ProcessFrame(plankFrame(95), sessionBase.Add(2*time.Second+50*time.Millisecond))
	s.ProcessFrame(plankFrame(160), sessionBase.Add(2*time.Second+100*time.Millisecond))

	snap := s.Snapshot()
	if snap.RepCount != 1 {
		t.Errorf("rep count = %d, want 1 (second rep inside cooldown)", snap.RepCount)
	}
	if snap.Stage != "up" {
		t.Errorf("stage = %q, want up even when the count was suppressed", snap.Stage)
	}

	// A third excursion clear of the cooldown counts.
	s.ProcessFrame(plankFrame(95), sessionBase.Add(3*time.Second))
	s.ProcessFrame(plankFrame(160), sessionBase.Add(4*time.Second))
	if got := s.Snapshot().RepCount; got != 2 {
		t.Errorf("rep count = %d, want 2", got)
	}
}

// TestBadFrameToleranceAbsorbsGlitches verifies that fewer than the tolerated
// number of consecutive gate failures neither unlocks the session nor blocks
// a subsequent excursion, while reaching the tolerance suspends counting
// until a passing frame resets the streak.
func TestBadFrameToleranceAbsorbsGlitches(t *testing.T) {
	s := NewSession(sessionTuning(), sessionBase)
	lockIn(t, s)

	// Two failures: under the tolerance of 3.
	feedFrames(s, time.Second, []*pose.Frame{nil, nil})
	if snap := s.Snapshot(); !snap.Locked {
		t.Fatal("session unlocked by sub-tolerance failures")
	}

	// Excursion still counts after the glitch.
	_, reps := feedFrames(s, 2*time.Second, []*pose.Frame{plankFrame(95), plankFrame(160)})
	if reps != 1 {
		t.Fatalf("reps after glitch = %d, want 1", reps)
	}

	// Three consecutive failures reach the tolerance: suspended status, phase
	// untouched.
	events, _ := feedFrames(s, 3*time.Second, []*pose.Frame{nil, nil, nil})
	suspended := false
	for _, ev := range events {
		if ev.Kind == EventStatus && ev.Status == "counting suspended: no subject detected" {
			suspended = true
		}
	}
	if !suspended {
		t.Error("no suspension status at bad-frame tolerance")
	}
	if snap := s.Snapshot(); !snap.Locked {
		t.Fatal("suspension must not reset the locked phase")
	}

	// A passing frame resets the streak; counting resumes without re-lock-in.
	_, reps = feedFrames(s, 4*time.Second, []*pose.Frame{plankFrame(160), plankFrame(95), plankFrame(160)})
	if reps != 1 {
		t.Errorf("reps after recovery = %d, want 1", reps)
	}
}

// TestNoUsableAngleSkipsCounting verifies that frames without a computable
// elbow angle are skipped for counting but don't disturb an excursion in
// progress.
func TestNoUsableAngleSkipsCounting(t *testing.T) {
	s := NewSession(sessionTuning(), sessionBase)
	lockIn(t, s)

	armless := plankFrame(95)
	armless.Keypoints[pose.LeftWrist].Visibility = 0
	armless.Keypoints[pose.RightWrist].Visibility = 0

	// Down, two armless glitch frames, then up: one rep.
	frames := []*pose.Frame{plankFrame(95), armless, armless, plankFrame(160)}
	_, reps := feedFrames(s, time.Second, frames)
	if reps != 1 {
		t.Errorf("reps = %d, want 1", reps)
	}
}

// TestMilestoneFlag verifies the every-Nth-rep milestone predicate.
func TestMilestoneFlag(t *testing.T) {
	tn := sessionTuning()
	tn.MilestoneEvery = 2
	s := NewSession(tn, sessionBase)
	lockIn(t, s)

	var repEvents []Event
	for i := 0; i < 3; i++ {
		offset := time.Duration(i+1) * 2 * time.Second
		events, _ := feedFrames(s, offset, []*pose.Frame{plankFrame(95), plankFrame(160)})
		for _, ev := range events {
			if ev.Kind == EventRep {
				repEvents = append(repEvents, ev)
			}
		}
	}
	if len(repEvents) != 3 {
		t.Fatalf("rep events = %d, want 3", len(repEvents))
	}
	wantMilestone := []bool{false, true, false}
	for i, ev := range repEvents {
		if ev.Milestone != wantMilestone[i] {
			t.Errorf("rep %d milestone = %v, want %v", ev.RepCount, ev.Milestone, wantMilestone[i])
		}
	}
}

// TestSnapshotIdempotent verifies two snapshots with no intervening frame are
// identical and don't mutate state.
func TestSnapshotIdempotent(t *testing.T) {
	s := NewSession(sessionTuning(), sessionBase)
	lockIn(t, s)
	feedFrames(s, time.Second, []*pose.Frame{plankFrame(95), plankFrame(160)})

	a := s.Snapshot()
	b := s.Snapshot()
	if a != b {
		t.Errorf("snapshots differ: %+v vs %+v", a, b)
	}
}

// TestStatusDeduplication verifies a held bad posture emits one status event,
// not one per frame.
func TestStatusDeduplication(t *testing.T) {
	s := NewSession(sessionTuning(), sessionBase)

	events, _ := feedFrames(s, 0, []*pose.Frame{nil, nil, nil})
	statuses := 0
	for _, ev := range events {
		if ev.Kind == EventStatus {
			statuses++
		}
	}
	if statuses != 1 {
		t.Errorf("status events = %d, want 1 for an unchanged status", statuses)
	}
}
