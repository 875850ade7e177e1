package engine

import (
	"fmt"
	"time"
)

// Tuning holds every numeric threshold the engine uses. All values are
// empirically tuned; they live here rather than as literals in the gate and
// state machine so they can be adjusted and tested independently.
type Tuning struct {
	// VisibilityThreshold is the minimum keypoint confidence for a joint to
	// count as visible.
	VisibilityThreshold float64 `json:"visibility_threshold"`

	// BodyReadyThreshold is the number of net-positive gate passes required
	// before the session locks in and counting starts.
	BodyReadyThreshold int `json:"body_ready_threshold"`

	// DownAngleDeg and UpAngleDeg are the hysteresis thresholds for the elbow
	// angle. The dead zone between them keeps sub-threshold jitter from
	// toggling the stage.
	DownAngleDeg float64 `json:"down_angle_deg"`
	UpAngleDeg   float64 `json:"up_angle_deg"`

	// SmoothingFactor is the exponential smoothing weight on the previous
	// value, in [0,1). Higher favors stability over responsiveness.
	SmoothingFactor float64 `json:"smoothing_factor"`

	// NeutralAngleDeg is the arms-extended rest angle the smoother is reseeded
	// to on lock-in.
	NeutralAngleDeg float64 `json:"neutral_angle_deg"`

	// RepCooldown is the minimum time between counted reps. An up-crossing
	// inside the cooldown still advances the stage but is not counted.
	RepCooldown time.Duration `json:"rep_cooldown"`

	// BadFrameTolerance is the number of consecutive posture failures
	// tolerated after lock-in before counting is suspended.
	BadFrameTolerance int `json:"bad_frame_tolerance"`

	// HorizontalTolerance is the maximum |shoulderY - hipY| (normalized
	// coordinates) for the torso to count as horizontal.
	HorizontalTolerance float64 `json:"horizontal_tolerance"`

	// HandHeightTolerance is the maximum height of the wrists above the
	// shoulders before the posture is rejected as hands-too-high.
	HandHeightTolerance float64 `json:"hand_height_tolerance"`

	// MilestoneEvery flags every Nth rep as a milestone for external audio/UI.
	// Zero disables milestones.
	MilestoneEvery int `json:"milestone_every"`
}

// DefaultTuning returns the thresholds used in production.
func DefaultTuning() Tuning {
	return Tuning{
		VisibilityThreshold: 0.35,
		BodyReadyThreshold:  8,
		DownAngleDeg:        105,
		UpAngleDeg:          145,
		SmoothingFactor:     0.7,
		NeutralAngleDeg:     160,
		RepCooldown:         200 * time.Millisecond,
		BadFrameTolerance:   5,
		HorizontalTolerance: 0.32,
		HandHeightTolerance: 0.25,
		MilestoneEvery:      10,
	}
}

// Validate checks that the tuning is internally consistent.
func (t Tuning) Validate() error {
	if t.VisibilityThreshold < 0 || t.VisibilityThreshold >= 1 {
		return fmt.Errorf("visibility_threshold must be in [0,1), got %v", t.VisibilityThreshold)
	}
	if t.BodyReadyThreshold < 1 {
		return fmt.Errorf("body_ready_threshold must be >= 1, got %d", t.BodyReadyThreshold)
	}
	if t.SmoothingFactor < 0 || t.SmoothingFactor >= 1 {
		return fmt.Errorf("smoothing_factor must be in [0,1), got %v", t.SmoothingFactor)
	}
	if t.DownAngleDeg >= t.UpAngleDeg {
		return fmt.Errorf("down_angle_deg (%v) must be below up_angle_deg (%v)", t.DownAngleDeg, t.UpAngleDeg)
	}
	if t.UpAngleDeg > 180 {
		return fmt.Errorf("up_angle_deg must be <= 180, got %v", t.UpAngleDeg)
	}
	if t.RepCooldown < 0 {
		return fmt.Errorf("rep_cooldown must be >= 0, got %v", t.RepCooldown)
	}
	if t.BadFrameTolerance < 1 {
		return fmt.Errorf("bad_frame_tolerance must be >= 1, got %d", t.BadFrameTolerance)
	}
	if t.HorizontalTolerance <= 0 {
		return fmt.Errorf("horizontal_tolerance must be > 0, got %v", t.HorizontalTolerance)
	}
	if t.HandHeightTolerance <= 0 {
		return fmt.Errorf("hand_height_tolerance must be > 0, got %v", t.HandHeightTolerance)
	}
	if t.MilestoneEvery < 0 {
		return fmt.Errorf("milestone_every must be >= 0, got %d", t.MilestoneEvery)
	}
	return nil
}
