package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RunWSHandler streams run events over a WebSocket. The client receives
// every broker event for the run as {"type": ..., "payload": ...} frames;
// pings keep the connection alive between events.
func (s *Server) RunWSHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if !s.requireKey(w, r) {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	ch := s.Broker.Subscribe(runID)
	defer s.Broker.Unsubscribe(runID, ch)

	// Completed runs publish before any client can connect, so send the
	// current state as the first frame.
	if run, err := s.Store.GetRun(r.Context(), runID); err == nil {
		if payload, err := json.Marshal(run); err == nil {
			if err := conn.WriteJSON(wsMessage{Type: "run.snapshot", Payload: payload}); err != nil {
				return
			}
		}
	}

	done := make(chan struct{})
	// Read loop only services control frames and detects close.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		}
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, _ := json.Marshal(evt.Data)
			if err := conn.WriteJSON(wsMessage{Type: evt.Type, Payload: payload}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
