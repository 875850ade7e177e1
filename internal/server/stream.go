package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin is already handled by the CORS middleware and API key auth.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a WebSocket and runs the frame loop: each inbound
// message is one frameMessage, and a reply is written whenever the engine
// emits events. Disconnecting does not finalize the session; the client calls
// the stop endpoint for that, so a dropped connection can resume.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := s.hub.Snapshot(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade", "id", id, "error", err)
		return
	}
	defer conn.Close()
	s.log.Info("stream opened", "id", id)

	for {
		var msg frameMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("stream read", "id", id, "error", err)
			}
			break
		}

		events, snap, err := s.hub.Process(id, msg.frame(), msg.at(time.Now()))
		if err != nil {
			// Session was stopped out from under the stream.
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, err.Error()),
				time.Now().Add(time.Second))
			break
		}
		if len(events) == 0 {
			continue
		}
		if err := conn.WriteJSON(frameReply{Events: events, Snapshot: snap}); err != nil {
			s.log.Warn("stream write", "id", id, "error", err)
			break
		}
	}
	s.log.Info("stream closed", "id", id)
}
