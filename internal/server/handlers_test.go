package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/repcount/internal/engine"
	"github.com/claude/repcount/internal/pose"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testServer() *Server {
	return New(nil, NewHub(testTuning()), "secret", discardLogger())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func frameBody(elbowDeg float64, tsMS int64) frameMessage {
	f := testFrame(elbowDeg)
	return frameMessage{TimestampMS: tsMS, Keypoints: f.Keypoints[:]}
}

// TestSessionEndpoints drives a full session over HTTP: start, lock in with
// frames, one counted excursion, snapshot, stop with summary.
func TestSessionEndpoints(t *testing.T) {
	srv := testServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body)
	}
	var started struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC).UnixMilli()

	// Lock-in plus one down/up excursion.
	angles := []float64{160, 160, 160, 95, 160}
	reps := 0
	for i, a := range angles {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+started.ID+"/frames",
			frameBody(a, base+int64(i)*1000))
		if rec.Code != http.StatusOK {
			t.Fatalf("frame %d status = %d (%s)", i, rec.Code, rec.Body)
		}
		var reply frameReply
		if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
			t.Fatalf("decoding frame reply: %v", err)
		}
		for _, ev := range reply.Events {
			if ev.Kind == engine.EventRep {
				reps++
			}
		}
	}
	if reps != 1 {
		t.Errorf("rep events over HTTP = %d, want 1", reps)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+started.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d", rec.Code)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.RepCount != 1 || !snap.Locked {
		t.Errorf("snapshot = %+v, want 1 rep and locked", snap)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+started.ID+"/stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d (%s)", rec.Code, rec.Body)
	}
	var summary engine.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if summary.RepCount != 1 {
		t.Errorf("summary rep count = %d, want 1", summary.RepCount)
	}

	// Stopped sessions are gone.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+started.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("snapshot after stop status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestPushFrameEmptyKeypoints verifies an empty keypoints array is treated as
// no subject, yielding a status event rather than an error.
func TestPushFrameEmptyKeypoints(t *testing.T) {
	srv := testServer()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	var started struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+started.ID+"/frames",
		frameMessage{Keypoints: []pose.Keypoint{}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	var reply frameReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	found := false
	for _, ev := range reply.Events {
		if ev.Kind == engine.EventStatus {
			found = true
		}
	}
	if !found {
		t.Error("expected a status event for a subject-less frame")
	}
}

// TestSessionEndpointErrors covers malformed IDs, unknown IDs, and bad JSON.
func TestSessionEndpointErrors(t *testing.T) {
	srv := testServer()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad id on get", http.MethodGet, "/api/v1/sessions/not-a-uuid", "", http.StatusBadRequest},
		{"unknown id on get", http.MethodGet, "/api/v1/sessions/6a6f1e6e-0000-4000-8000-000000000000", "", http.StatusNotFound},
		{"unknown id on stop", http.MethodPost, "/api/v1/sessions/6a6f1e6e-0000-4000-8000-000000000000/stop", "", http.StatusNotFound},
		{"bad json on frames", http.MethodPost, "/api/v1/sessions/6a6f1e6e-0000-4000-8000-000000000000/frames", "{", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			req.Header.Set("X-API-Key", "secret")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

// TestSessionsRequireAPIKey verifies the auth middleware guards the session
// group.
func TestSessionsRequireAPIKey(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
