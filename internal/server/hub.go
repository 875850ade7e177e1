package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcount/internal/engine"
	"github.com/claude/repcount/internal/pose"
)

// ErrSessionNotFound is returned for operations on unknown or already
// stopped sessions.
var ErrSessionNotFound = errors.New("session not found")

// Hub owns the live counting sessions. The engine itself is single-threaded
// by contract, so the hub provides the external serialization: a per-session
// mutex covers frame processing, and the hub mutex covers the registry.
type Hub struct {
	mu       sync.Mutex
	tuning   engine.Tuning
	sessions map[uuid.UUID]*liveSession
}

type liveSession struct {
	mu   sync.Mutex
	sess *engine.Session
}

// NewHub creates a hub that starts sessions with the given tuning.
func NewHub(t engine.Tuning) *Hub {
	return &Hub{
		tuning:   t,
		sessions: make(map[uuid.UUID]*liveSession),
	}
}

// SetTuning swaps the tuning used for sessions started from now on. Running
// sessions keep the tuning they were created with.
func (h *Hub) SetTuning(t engine.Tuning) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tuning = t
}

// Start creates a new session and returns its ID.
func (h *Hub) Start(now time.Time) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	h.sessions[id] = &liveSession{sess: engine.NewSession(h.tuning, now)}
	return id
}

func (h *Hub) get(id uuid.UUID) (*liveSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ls, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

// Process feeds one frame to a session and returns the emitted events plus a
// fresh snapshot.
func (h *Hub) Process(id uuid.UUID, f *pose.Frame, at time.Time) ([]engine.Event, engine.Snapshot, error) {
	ls, err := h.get(id)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	events := ls.sess.ProcessFrame(f, at)
	return events, ls.sess.Snapshot(), nil
}

// Snapshot returns a point-in-time copy of a session's counters.
func (h *Hub) Snapshot(id uuid.UUID) (engine.Snapshot, error) {
	ls, err := h.get(id)
	if err != nil {
		return engine.Snapshot{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.sess.Snapshot(), nil
}

// Stop finalizes a session, removes it from the hub, and returns its summary.
func (h *Hub) Stop(id uuid.UUID, at time.Time) (engine.Summary, error) {
	h.mu.Lock()
	ls, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	if !ok {
		return engine.Summary{}, ErrSessionNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.sess.Finish(at), nil
}

// Active returns the number of live sessions.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
