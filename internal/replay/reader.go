package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/claude/repcount/internal/pose"
)

// ReplayFrame is one line of a recorded frame log: the pose keypoints plus
// the capture timestamp in Unix milliseconds. An empty or absent keypoints
// array means the pose model found no subject in that frame.
type ReplayFrame struct {
	TimestampMS int64           `json:"ts_ms"`
	Keypoints   []pose.Keypoint `json:"keypoints"`
}

// Frame converts the recorded keypoints to an engine frame, nil when the
// frame had no subject.
func (rf ReplayFrame) Frame() *pose.Frame {
	if len(rf.Keypoints) == 0 {
		return nil
	}
	f := &pose.Frame{}
	copy(f.Keypoints[:], rf.Keypoints)
	return f
}

// At returns the capture time. Frames recorded without a timestamp are
// spaced at the nominal 30fps interval from the base time.
func (rf ReplayFrame) At(base time.Time, index int) time.Time {
	if rf.TimestampMS > 0 {
		return time.UnixMilli(rf.TimestampMS)
	}
	return base.Add(time.Duration(index) * 33 * time.Millisecond)
}

// ReadFrames decodes a JSONL frame log, one frame per line. Blank lines are
// skipped; a malformed line fails the whole read with its line number.
func ReadFrames(r io.Reader) ([]ReplayFrame, error) {
	var frames []ReplayFrame

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var f ReplayFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading frame log: %w", err)
	}
	return frames, nil
}
