package handlers

import (
	"log"
	"net/http"

	"github.com/chip-race/league-server/live"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the CORS layer in front.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeRankingWs subscribes the client to live updates of one leaderboard.
// Clients connect to /ws/rankings/{rankingID}.
func (h *WebSocketHandler) ServeRankingWs(w http.ResponseWriter, r *http.Request) {
	rankingID := chi.URLParam(r, "rankingID")
	if rankingID == "" {
		http.Error(w, "Missing rankingID", http.StatusBadRequest)
		return
	}
	h.serve(w, r, live.RankingRoom(rankingID))
}

// ServeEventWs subscribes the client to live updates of one event.
// Clients connect to /ws/events/{eventID}.
func (h *WebSocketHandler) ServeEventWs(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		http.Error(w, "Missing eventID", http.StatusBadRequest)
		return
	}
	h.serve(w, r, live.EventRoom(eventID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Printf("Failed to upgrade connection for room %s: %v", roomID, err)
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
