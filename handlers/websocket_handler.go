package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/league-system/realtime"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the reverse proxy.
		return true
	},
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeTeamRoom subscribes the connection to a team's roster events.
func (h *WebSocketHandler) ServeTeamRoom(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.serve(w, r, realtime.TeamRoom(teamID))
}

// ServeSeasonRoom subscribes the connection to season-wide events:
// registrations, deletions and game results.
func (h *WebSocketHandler) ServeSeasonRoom(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.serve(w, r, realtime.SeasonRoom(seasonID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection",
			slog.String("room", room), slog.Any("error", err))
		return
	}

	client := &realtime.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
