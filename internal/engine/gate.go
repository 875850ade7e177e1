package engine

import (
	"math"

	"github.com/claude/repcount/internal/pose"
)

// GateReason classifies why a frame failed the position gate.
type GateReason int

const (
	GateOK GateReason = iota
	// GateNoSubject: the pose model found no subject in the frame.
	GateNoSubject
	// GateIncompleteBody: shoulders, hips, or a full arm are not visible.
	GateIncompleteBody
	// GateNotHorizontal: the torso is too upright for a plank position.
	GateNotHorizontal
	// GateHandsTooHigh: wrists raised well above the shoulders, which mimics
	// the elbow-angle pattern while standing.
	GateHandsTooHigh
	// GateStanding: torso nearly vertical in image space.
	GateStanding
)

var gateReasonNames = map[GateReason]string{
	GateOK:             "ok",
	GateNoSubject:      "no subject detected",
	GateIncompleteBody: "full body not visible",
	GateNotHorizontal:  "body not horizontal",
	GateHandsTooHigh:   "hands too high",
	GateStanding:       "standing posture",
}

func (r GateReason) String() string {
	if s, ok := gateReasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// GateResult is the outcome of a position check.
type GateResult struct {
	OK     bool
	Reason GateReason
}

// Secondary standing rejection: a torso whose shoulder→hip span is nearly all
// vertical passes the horizontal-tolerance check only marginally, so it gets
// a dedicated spread test.
const (
	standingXSpreadMax = 0.10
	standingYSpreadMin = 0.18
)

// CheckPosition classifies whether the frame shows a valid prone push-up
// posture. Cheap geometric heuristics stand in for full 3D pose
// classification; each check rejects a specific family of wrong postures.
func CheckPosition(f *pose.Frame, t Tuning) GateResult {
	if f == nil {
		return GateResult{Reason: GateNoSubject}
	}

	vis := t.VisibilityThreshold
	ls := f.Keypoints[pose.LeftShoulder]
	rs := f.Keypoints[pose.RightShoulder]
	lh := f.Keypoints[pose.LeftHip]
	rh := f.Keypoints[pose.RightHip]

	if !ls.Visible(vis) || !rs.Visible(vis) || !lh.Visible(vis) || !rh.Visible(vis) {
		return GateResult{Reason: GateIncompleteBody}
	}
	if !armVisible(f, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, vis) &&
		!armVisible(f, pose.RightShoulder, pose.RightElbow, pose.RightWrist, vis) {
		return GateResult{Reason: GateIncompleteBody}
	}

	shoulderY := (ls.Y + rs.Y) / 2
	hipY := (lh.Y + rh.Y) / 2

	if math.Abs(shoulderY-hipY) > t.HorizontalTolerance {
		return GateResult{Reason: GateNotHorizontal}
	}

	// y grows downward, so a wrist above the shoulders has a smaller y.
	wristY, ok := avgWristY(f, vis)
	if ok && shoulderY-wristY > t.HandHeightTolerance {
		return GateResult{Reason: GateHandsTooHigh}
	}

	shoulderX := (ls.X + rs.X) / 2
	hipX := (lh.X + rh.X) / 2
	xSpread := math.Abs(shoulderX - hipX)
	ySpread := math.Abs(shoulderY - hipY)
	if xSpread < standingXSpreadMax && ySpread > standingYSpreadMin {
		return GateResult{Reason: GateStanding}
	}

	return GateResult{OK: true, Reason: GateOK}
}

func armVisible(f *pose.Frame, shoulder, elbow, wrist pose.Joint, threshold float64) bool {
	return f.Keypoints[shoulder].Visible(threshold) &&
		f.Keypoints[elbow].Visible(threshold) &&
		f.Keypoints[wrist].Visible(threshold)
}

// avgWristY averages the y of whichever wrists are visible. Returns false if
// neither wrist is visible, in which case the hand-height check is skipped.
func avgWristY(f *pose.Frame, threshold float64) (float64, bool) {
	lw := f.Keypoints[pose.LeftWrist]
	rw := f.Keypoints[pose.RightWrist]
	switch {
	case lw.Visible(threshold) && rw.Visible(threshold):
		return (lw.Y + rw.Y) / 2, true
	case lw.Visible(threshold):
		return lw.Y, true
	case rw.Visible(threshold):
		return rw.Y, true
	default:
		return 0, false
	}
}

// ElbowAngle computes the raw elbow angle for the frame: the mean of both arm
// angles when both sides are fully visible, a single side's angle when only
// one is, and no sample when neither arm is usable.
func ElbowAngle(f *pose.Frame, threshold float64) (float64, bool) {
	if f == nil {
		return 0, false
	}
	var sum float64
	var n int
	if armVisible(f, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, threshold) {
		sum += pose.Angle(f.Keypoints[pose.LeftShoulder], f.Keypoints[pose.LeftElbow], f.Keypoints[pose.LeftWrist])
		n++
	}
	if armVisible(f, pose.RightShoulder, pose.RightElbow, pose.RightWrist, threshold) {
		sum += pose.Angle(f.Keypoints[pose.RightShoulder], f.Keypoints[pose.RightElbow], f.Keypoints[pose.RightWrist])
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
