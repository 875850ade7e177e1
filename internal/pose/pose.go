// Package pose defines the per-frame keypoint data contract shared by the
// rep-counting engine and its transports. Keypoints arrive from an external
// pose-estimation model in normalized image coordinates (0..1, y grows
// downward) with a per-joint confidence score.
package pose

// Joint indexes the fixed set of body joints this engine tracks. Upstream
// models emit more landmarks; transports map the twelve we use and drop the
// rest.
type Joint int

const (
	LeftShoulder Joint = iota
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	JointCount
)

var jointNames = [JointCount]string{
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
}

func (j Joint) String() string {
	if j < 0 || j >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// Keypoint is a single tracked joint position. Coordinates are normalized
// image-space; Visibility is the model's confidence in [0,1] and defaults to
// zero when the model omits the landmark.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Visible reports whether the keypoint's confidence clears the threshold.
func (k Keypoint) Visible(threshold float64) bool {
	return k.Visibility > threshold
}

// Frame is one complete set of keypoints from one inference cycle. A nil
// *Frame means the model found no subject at all, which is a distinct signal
// from a present frame whose joints fall below the visibility threshold.
type Frame struct {
	Keypoints [JointCount]Keypoint `json:"keypoints"`
}
