package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend domain list is settled.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// identifyFrame is the first frame a notification socket must send.
// Nothing is delivered until it arrives.
type identifyFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// NotifyHandler serves the notification socket. The endpoint carries no
// auth header; the client identifies itself in-band with its first
// frame, matching what the browser clients send.
type NotifyHandler struct {
	hub *Hub
}

func NewNotifyHandler(hub *Hub) *NotifyHandler {
	return &NotifyHandler{hub: hub}
}

// HandleConnection upgrades, waits for the identify frame, then
// registers the connection for push delivery.
func (h *NotifyHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] notify upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(identifyWait)); err != nil {
		conn.Close()
		return
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}

	var frame identifyFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "identify" || frame.UserID == "" {
		log.Printf("[ws] notify connection closed: bad identify frame")
		conn.Close()
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: frame.UserID,
		kind:   kindNotify,
		rooms:  make(map[string]bool),
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}

	h.hub.register <- client

	go client.WritePump()
	client.ReadPump()
}
