package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/researchinpublic/mentor-go-sdk/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API is token-gated upstream; origin checks belong there.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsRequest is one inbound turn over a WebSocket connection.
type wsRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Mode      string `json:"mode"`
}

// handleWS serves turns over a persistent WebSocket. The client sends
// one wsRequest per turn; the server answers with the StreamEvent
// sequence for that turn. Turns on one connection run sequentially.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SERVER] WebSocket read failed: %v", err)
			}
			return
		}

		events := s.orch.ProcessStream(r.Context(), req.SessionID, req.Message, orchestrator.Mode(req.Mode))
		for event := range events {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[SERVER] WebSocket write failed: %v", err)
				return
			}
		}
	}
}
