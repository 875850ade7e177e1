package replay

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/claude/repcount/internal/engine"
	"github.com/claude/repcount/internal/pose"
)

// replayFrame builds a recorded frame with both elbows at the given angle in
// a valid plank posture.
func replayFrame(elbowDeg float64, tsMS int64) ReplayFrame {
	kps := make([]pose.Keypoint, pose.JointCount)
	set := func(j pose.Joint, x, y float64) {
		kps[j] = pose.Keypoint{X: x, Y: y, Visibility: 0.95}
	}
	sides := []struct{ shoulder, elbow, wrist, hip, knee, ankle pose.Joint }{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip, pose.RightKnee, pose.RightAnkle},
	}
	for _, s := range sides {
		set(s.shoulder, 0.30, 0.50)
		set(s.hip, 0.70, 0.55)
		set(s.knee, 0.85, 0.57)
		set(s.ankle, 0.95, 0.58)
		set(s.elbow, 0.30, 0.62)
		phi := (-90 + elbowDeg) * math.Pi / 180
		set(s.wrist, 0.30+0.12*math.Cos(phi), 0.62+0.12*math.Sin(phi))
	}
	return ReplayFrame{TimestampMS: tsMS, Keypoints: kps}
}

func replayTuning() engine.Tuning {
	t := engine.DefaultTuning()
	t.SmoothingFactor = 0
	t.BodyReadyThreshold = 3
	return t
}

// TestReadFrames covers well-formed lines, blank lines, the no-subject
// encoding, and malformed input.
func TestReadFrames(t *testing.T) {
	log := strings.Join([]string{
		`{"ts_ms":1000,"keypoints":[{"x":0.5,"y":0.5,"visibility":0.9}]}`,
		``,
		`{"ts_ms":1033,"keypoints":[]}`,
		`{"ts_ms":1066}`,
	}, "\n")

	frames, err := ReadFrames(strings.NewReader(log))
	if err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3 (blank line skipped)", len(frames))
	}
	if frames[0].Frame() == nil {
		t.Error("frame with keypoints decoded as no subject")
	}
	if frames[1].Frame() != nil || frames[2].Frame() != nil {
		t.Error("empty/missing keypoints must decode as no subject")
	}

	if _, err := ReadFrames(strings.NewReader("{bad json\n")); err == nil {
		t.Error("expected error for malformed line")
	} else if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error %q should name the line", err)
	}
}

// TestReplayFrameAt verifies timestamped frames use ts_ms while untimestamped
// ones space out at 30fps from the base.
func TestReplayFrameAt(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	rf := ReplayFrame{TimestampMS: base.UnixMilli()}
	if got := rf.At(base.Add(time.Hour), 5); !got.Equal(base) {
		t.Errorf("At = %v, want recorded timestamp", got)
	}

	rf = ReplayFrame{}
	if got := rf.At(base, 3); !got.Equal(base.Add(99 * time.Millisecond)) {
		t.Errorf("At = %v, want base+99ms", got)
	}
}

// TestRunCountsReps replays a lock-in followed by two excursions and checks
// the summary, event stream, and angle trace line up.
func TestRunCountsReps(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	var frames []ReplayFrame
	for i, a := range []float64{160, 160, 160, 95, 160, 95, 160} {
		frames = append(frames, replayFrame(a, base+int64(i)*1000))
	}

	res := Run(frames, replayTuning(), time.UnixMilli(base))
	if res.Summary.RepCount != 2 {
		t.Errorf("rep count = %d, want 2", res.Summary.RepCount)
	}
	if res.Frames != len(frames) {
		t.Errorf("frames = %d, want %d", res.Frames, len(frames))
	}
	if len(res.Samples) != len(frames) {
		t.Fatalf("samples = %d, want %d", len(res.Samples), len(frames))
	}

	last := res.Samples[len(res.Samples)-1]
	if !last.Locked || last.RepCount != 2 {
		t.Errorf("final sample = %+v, want locked with 2 reps", last)
	}
	if !last.HasAngle || math.Abs(last.Angle-160) > 1e-6 {
		t.Errorf("final angle = %.2f, want 160", last.Angle)
	}

	reps := 0
	for _, ev := range res.Events {
		if ev.Kind == engine.EventRep {
			reps++
		}
	}
	if reps != 2 {
		t.Errorf("rep events = %d, want 2", reps)
	}
}

// TestRunEmptyLog verifies an empty log yields an empty result, not a panic.
func TestRunEmptyLog(t *testing.T) {
	res := Run(nil, replayTuning(), time.Now())
	if res.Frames != 0 || res.Summary.RepCount != 0 || len(res.Samples) != 0 {
		t.Errorf("empty run = %+v", res)
	}
}

// TestResultsDBRoundtrip records runs into a temp database and lists them
// back with the source filter.
func TestResultsDBRoundtrip(t *testing.T) {
	db, err := OpenResultsDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenResultsDB: %v", err)
	}
	defer db.Close()

	res := &Result{Frames: 100}
	res.Summary.RepCount = 10
	res.Summary.Duration = 90 * time.Second
	res.Summary.CadenceRPM = 7.5

	if _, err := db.RecordRun("workout-a.jsonl", res); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if _, err := db.RecordRun("workout-b.jsonl", res); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := db.ListRuns("workout-a.jsonl", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("filtered runs = %d, want 1", len(runs))
	}
	if runs[0].RepCount != 10 || runs[0].Frames != 100 {
		t.Errorf("run = %+v", runs[0])
	}

	all, err := db.ListRuns("", 10)
	if err != nil {
		t.Fatalf("ListRuns all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all runs = %d, want 2", len(all))
	}
}

// TestWriteReport renders the chart and spot-checks the HTML.
func TestWriteReport(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	var frames []ReplayFrame
	for i, a := range []float64{160, 160, 160, 95, 160} {
		frames = append(frames, replayFrame(a, base+int64(i)*1000))
	}
	res := Run(frames, replayTuning(), time.UnixMilli(base))

	var buf bytes.Buffer
	if err := WriteReport(&buf, "workout-a", res); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "workout-a") {
		t.Error("report missing title")
	}
	if !strings.Contains(html, "elbow angle") {
		t.Error("report missing angle series")
	}

	if err := WriteReport(&buf, "empty", &Result{}); err == nil {
		t.Error("expected error for empty result")
	}
}

// TestReadFramesJSONRoundtrip guards the wire field names.
func TestReadFramesJSONRoundtrip(t *testing.T) {
	rf := replayFrame(150, 1234)
	data, err := json.Marshal(rf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"ts_ms":1234`) {
		t.Errorf("encoded frame missing ts_ms: %s", data)
	}

	frames, err := ReadFrames(bytes.NewReader(append(data, '\n')))
	if err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(frames) != 1 || frames[0].TimestampMS != 1234 {
		t.Errorf("frames = %+v", frames)
	}
}
