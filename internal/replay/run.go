package replay

import (
	"time"

	"github.com/claude/repcount/internal/engine"
)

// Sample is the per-frame trace of a replay run, kept for charting.
type Sample struct {
	At       time.Time
	Angle    float64
	HasAngle bool
	RepCount int
	Locked   bool
}

// Result is the outcome of replaying a frame log through the engine.
type Result struct {
	Summary engine.Summary
	Events  []engine.Event
	Samples []Sample
	Frames  int
}

// Run feeds a recorded frame log through a fresh session and collects the
// full event and angle trace. The base time anchors frames recorded without
// timestamps.
func Run(frames []ReplayFrame, tuning engine.Tuning, base time.Time) *Result {
	res := &Result{Frames: len(frames)}
	if len(frames) == 0 {
		return res
	}

	start := frames[0].At(base, 0)
	sess := engine.NewSession(tuning, start)

	var last time.Time
	for i, rf := range frames {
		at := rf.At(base, i)
		f := rf.Frame()
		res.Events = append(res.Events, sess.ProcessFrame(f, at)...)

		snap := sess.Snapshot()
		sample := Sample{At: at, RepCount: snap.RepCount, Locked: snap.Locked}
		if angle, ok := engine.ElbowAngle(f, tuning.VisibilityThreshold); ok {
			sample.Angle = angle
			sample.HasAngle = true
		}
		res.Samples = append(res.Samples, sample)
		last = at
	}

	res.Summary = sess.Finish(last)
	return res
}
