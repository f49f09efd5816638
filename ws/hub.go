package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// Publisher is the interface the service layer uses to push events out.
// Services depend on this, not on the concrete Hub, so tests can swap in
// a recorder and the Redis bridge can wrap the Hub transparently.
type Publisher interface {
	NotifyUser(userID string, n Notification)
	BroadcastToRoom(room string, event Event)
	BroadcastToUser(userID string, event Event)
	IsOnline(userID string) bool
}

// Hub tracks every connection on this instance. A user may hold several
// connections at once (multiple tabs, notify + chat side by side).
type Hub struct {
	// clients: userID -> connection set.
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// seq numbers outbound chat events across the whole hub.
	seq atomic.Int64

	// Callbacks wired in main.go. The ws package never imports services;
	// the arrow points the other way.
	onChatMessage   func(userID, room, content string)
	onDeleteMessage func(userID, messageID string)
	onRoomHistory   func(userID, room string) (any, error)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetOnChatMessage wires the send_message op to the message service.
func (h *Hub) SetOnChatMessage(fn func(userID, room, content string)) {
	h.onChatMessage = fn
}

// SetOnDeleteMessage wires the delete_message op to the message service.
func (h *Hub) SetOnDeleteMessage(fn func(userID, messageID string)) {
	h.onDeleteMessage = fn
}

// SetOnRoomHistory wires history requests. The callback returns the
// payload for a room_history event addressed to the requesting client.
func (h *Hub) SetOnRoomHistory(fn func(userID, room string) (any, error)) {
	h.onRoomHistory = fn
}

// Run is the hub's registration loop. Started as a goroutine in main.go.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s kind=%s (connections for user: %d)",
		client.userID, client.kind, len(h.clients[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.clients[client.userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := clients[client]; !exists {
		h.mu.Unlock()
		return
	}

	delete(clients, client)
	close(client.done)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	// Announce departures after releasing the lock; broadcast takes it
	// again.
	left := make([]string, 0, len(client.rooms))
	for room := range client.rooms {
		left = append(left, room)
	}
	h.mu.Unlock()

	for _, room := range left {
		h.BroadcastToRoom(room, Event{
			Op:   OpUserLeft,
			Data: PresenceData{Room: room, UserID: client.userID, Name: client.name},
		})
	}

	log.Printf("[ws] client disconnected: user=%s kind=%s", client.userID, client.kind)
}

// joinRoom adds the client to a room and announces it to the others.
// Access was already checked by the caller.
func (h *Hub) joinRoom(client *Client, room string) {
	h.mu.Lock()
	already := client.rooms[room]
	client.rooms[room] = true
	h.mu.Unlock()

	if already {
		return
	}
	h.BroadcastToRoom(room, Event{
		Op:   OpUserJoined,
		Data: PresenceData{Room: room, UserID: client.userID, Name: client.name},
	})
}

func (h *Hub) leaveRoom(client *Client, room string) {
	h.mu.Lock()
	was := client.rooms[room]
	delete(client.rooms, room)
	h.mu.Unlock()

	if !was {
		return
	}
	h.BroadcastToRoom(room, Event{
		Op:   OpUserLeft,
		Data: PresenceData{Room: room, UserID: client.userID, Name: client.name},
	})
}

// NotifyUser pushes a flat notification frame to every notification
// connection the user has open. Chat connections never receive these.
func (h *Hub) NotifyUser(userID string, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Printf("[ws] failed to marshal notification: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		if client.kind != kindNotify {
			continue
		}
		h.push(client, data)
	}
}

// BroadcastToRoom sends an enveloped event to every chat connection
// currently joined to the room.
func (h *Hub) BroadcastToRoom(room string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal room event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			if client.kind != kindChat || !client.rooms[room] {
				continue
			}
			h.push(client, data)
		}
	}
}

// BroadcastToUser sends an enveloped event to every chat connection of
// one user, regardless of room membership.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		if client.kind != kindChat {
			continue
		}
		h.push(client, data)
	}
}

// push writes to a client's send buffer; a full buffer means the client
// is too slow and gets dropped.
func (h *Hub) push(client *Client, data []byte) {
	select {
	case <-client.done:
	case client.send <- data:
	default:
		go func(c *Client) { h.unregister <- c }(client)
	}
}

// IsOnline reports whether the user has any open connection here. Used
// to decide between a push and a fallback email.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Shutdown closes every connection for graceful server stop.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.done)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
