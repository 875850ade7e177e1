package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repcount/internal/engine"
	"github.com/claude/repcount/internal/models"
	"github.com/claude/repcount/internal/pose"
)

// frameMessage is the wire shape of one pose frame. An empty keypoints array
// means the pose model found no subject. ts_ms is the client capture
// timestamp in Unix milliseconds; when absent the server arrival time is
// used, which is good enough for cooldown purposes on a live connection.
type frameMessage struct {
	TimestampMS int64           `json:"ts_ms,omitempty"`
	Keypoints   []pose.Keypoint `json:"keypoints"`
}

func (m frameMessage) frame() *pose.Frame {
	if len(m.Keypoints) == 0 {
		return nil
	}
	f := &pose.Frame{}
	copy(f.Keypoints[:], m.Keypoints)
	return f
}

func (m frameMessage) at(fallback time.Time) time.Time {
	if m.TimestampMS > 0 {
		return time.UnixMilli(m.TimestampMS)
	}
	return fallback
}

// frameReply carries the engine's response to one processed frame.
type frameReply struct {
	Events   []engine.Event  `json:"events"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id := s.hub.Start(time.Now())
	s.log.Info("session started", "id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, err := s.hub.Snapshot(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePushFrame(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var msg frameMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	events, snap, err := s.hub.Process(id, msg.frame(), msg.at(time.Now()))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, http.StatusOK, frameReply{Events: events, Snapshot: snap})
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := s.hub.Stop(id, time.Now())
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("session stopped", "id", id, "reps", summary.RepCount)

	if s.db != nil {
		if err := s.persistSummary(r, id, summary); err != nil {
			s.log.Error("persisting session", "id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) persistSummary(r *http.Request, id uuid.UUID, summary engine.Summary) error {
	row := models.SessionRow{
		ID:                   id,
		StartedAt:            summary.StartedAt,
		EndedAt:              summary.EndedAt,
		DurationSec:          summary.Duration.Seconds(),
		RepCount:             summary.RepCount,
		MeanRepIntervalSec:   summary.MeanRepIntervalSec,
		RepIntervalStddevSec: summary.RepIntervalStddevSec,
		CadenceRPM:           summary.CadenceRPM,
	}
	if _, err := s.db.InsertSession(r.Context(), row); err != nil {
		return err
	}

	reps := make([]models.RepRow, len(summary.RepTimes))
	for i, at := range summary.RepTimes {
		reps[i] = models.RepRow{SessionID: id, RepNumber: i + 1, CountedAt: at}
	}
	_, err := s.db.InsertReps(r.Context(), reps)
	return err
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.db.QuerySessions(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	detail, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := s.db.GetTrainingStats(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	daily, err := s.db.GetDailyTotals(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	best, err := s.db.GetBestSession(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totals": stats,
		"daily":  daily,
		"best":   best,
	})
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid session id")
	}
	return id, nil
}

// parseTimeRange reads start/end query params (RFC3339 or YYYY-MM-DD),
// defaulting to the last 30 days.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
		end = t
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
