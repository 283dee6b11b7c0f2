package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/roastlab/roast-arena/internal/realtime"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub *realtime.Hub
	log *logrus.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, log *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, log: log}
}

// Handle upgrades a viewer connection and attaches it to the hub.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := realtime.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
