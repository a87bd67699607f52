package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingPeriod   = 30 * time.Second
)

// handleFeed streams task change events over a websocket. The feed is a
// convenience channel: events can be dropped, polling the REST API stays
// authoritative.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get(ownerHeader)
	if ownerID == "" {
		writeJSON(s, w, http.StatusUnauthorized, errorResponse{Error: "missing " + ownerHeader + " header"})
		return
	}
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		writeJSON(s, w, http.StatusBadRequest, errorResponse{Error: "task_id query parameter is required"})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warningf("Websocket upgrade failed: %s", err)
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe(taskID)
	defer cancel()

	// Reader goroutine: only there to detect the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			// Events of other owners on the same task are not theirs to see.
			if e.OwnerID != ownerID {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
