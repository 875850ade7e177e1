package engine

// EventKind discriminates the engine's observable events.
type EventKind string

const (
	// EventStatus carries a human-readable status change ("locking in, 3/8",
	// "bad posture: hands too high", "rep 12").
	EventStatus EventKind = "status"
	// EventRep carries a counted rep with its new total.
	EventRep EventKind = "rep"
	// EventReadiness signals the lock-in transition.
	EventReadiness EventKind = "readiness"
)

// Event is a point-in-time notification emitted by ProcessFrame. Collaborators
// (UI, audio, persistence) receive copies; none of them can reach back into
// session state.
type Event struct {
	Kind      EventKind `json:"kind"`
	Status    string    `json:"status,omitempty"`
	RepCount  int       `json:"rep_count,omitempty"`
	Milestone bool      `json:"milestone,omitempty"`
	Locked    bool      `json:"locked,omitempty"`
}
