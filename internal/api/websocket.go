package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"rag-engine/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The browser UI may be served from a different origin.
		return true
	},
}

// wsChatRequest is one question over the chat socket.
type wsChatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// wsChatResponse mirrors the HTTP chat result, tagged with the session.
type wsChatResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Answer    string `json:"answer,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleChatWebSocket serves a persistent chat connection. Each inbound
// frame is one question; each outbound frame is one complete structured
// result. Malformed frames get an error frame back, not a disconnect.
func (h *Handler) HandleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[%s] websocket upgrade failed: %v", middleware.GetRequestID(r.Context()), err)
		return
	}
	defer conn.Close()

	for {
		var req wsChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		result := h.qa.Query(r.Context(), req.SessionID, req.Query)
		resp := wsChatResponse{
			SessionID: req.SessionID,
			Status:    string(result.Status),
			Answer:    result.Answer,
			Error:     result.Error,
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("websocket write error: %v", err)
			return
		}
	}
}
