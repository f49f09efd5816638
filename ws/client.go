package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write; past it the connection is dead.
	writeWait = 10 * time.Second

	// pongWait is three missed 30s heartbeats.
	pongWait = 90 * time.Second

	// identifyWait bounds how long a notification socket may sit silent
	// before sending its identify frame.
	identifyWait = 10 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 256

	maxContentRunes = 2000
)

// Connection kinds. A notify client receives flat Notification frames,
// a chat client receives enveloped events.
type clientKind string

const (
	kindNotify clientKind = "notify"
	kindChat   clientKind = "chat"
)

// Client is one WebSocket connection. Two goroutines per connection:
// ReadPump consumes inbound frames, WritePump drains the send buffer.
// gorilla/websocket allows one concurrent reader and one writer, so the
// split keeps them from blocking each other.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	name   string
	kind   clientKind

	// rooms this connection has joined; guarded by hub.mu.
	rooms map[string]bool

	// allowed is the room set the user may join. Fixed at connect time;
	// a permission change takes effect on reconnect.
	allowed map[string]bool

	send chan []byte
	mu   sync.Mutex

	// done is closed by the hub when the client is dropped. The send
	// channel itself is never closed: the read pump and the history
	// callback queue events from their own goroutines, and a send racing
	// a close would panic. Writers check done instead.
	done chan struct{}
}

// ReadPump consumes inbound frames until the connection closes, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		if c.kind == kindNotify {
			// Notification sockets are one-way after identify. Any frame
			// just refreshes the liveness deadline.
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				return
			}
			continue
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[ws] invalid frame from user %s: %v", c.userID, err)
			continue
		}
		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpJoinRoom:
		c.handleJoinRoom(event)

	case OpLeaveRoom:
		var data RoomData
		if err := decodeData(event.Data, &data); err != nil || data.Room == "" {
			return
		}
		c.hub.leaveRoom(c, data.Room)

	case OpSendMessage:
		c.handleSendMessage(event)

	case OpDeleteMessage:
		var data DeleteMessageData
		if err := decodeData(event.Data, &data); err != nil || data.MessageID == "" {
			c.sendError("message_id is required")
			return
		}
		if c.hub.onDeleteMessage != nil {
			go c.hub.onDeleteMessage(c.userID, data.MessageID)
		}

	case OpGetRoomHistory:
		var data RoomData
		if err := decodeData(event.Data, &data); err != nil || data.Room == "" {
			c.sendError("room is required")
			return
		}
		if !c.allowed[data.Room] {
			c.sendError("no access to room " + data.Room)
			return
		}
		c.sendRoomHistory(data.Room)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// handleJoinRoom checks access, joins, and replies with the room's
// recent history so the client can render immediately.
func (c *Client) handleJoinRoom(event Event) {
	var data RoomData
	if err := decodeData(event.Data, &data); err != nil || data.Room == "" {
		c.sendError("room is required")
		return
	}
	if !c.allowed[data.Room] {
		c.sendError("no access to room " + data.Room)
		return
	}

	c.hub.joinRoom(c, data.Room)
	c.sendRoomHistory(data.Room)
}

func (c *Client) handleSendMessage(event Event) {
	var data SendMessageData
	if err := decodeData(event.Data, &data); err != nil || data.Room == "" {
		c.sendError("room is required")
		return
	}
	if data.Content == "" || utf8.RuneCountInString(data.Content) > maxContentRunes {
		c.sendError("message content must be 1-2000 characters")
		return
	}
	if !c.allowed[data.Room] {
		c.sendError("no access to room " + data.Room)
		return
	}

	// Persistence and fan-out happen in the message service; the
	// resulting new_message event comes back through the hub.
	if c.hub.onChatMessage != nil {
		go c.hub.onChatMessage(c.userID, data.Room, data.Content)
	}
}

func (c *Client) sendRoomHistory(room string) {
	if c.hub.onRoomHistory == nil {
		return
	}
	go func() {
		payload, err := c.hub.onRoomHistory(c.userID, room)
		if err != nil {
			c.sendError("failed to load history for " + room)
			return
		}
		c.sendEvent(Event{Op: OpRoomHistory, Data: payload, Seq: c.hub.seq.Add(1)})
	}()
}

func (c *Client) sendError(msg string) {
	c.sendEvent(Event{Op: OpError, Data: ErrorData{Message: msg}})
}

// sendEvent queues an event for this connection only.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	select {
	case <-c.done:
		// Already dropped; late replies are discarded.
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump drains the send buffer into the connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			c.writeMessage(websocket.CloseMessage, nil)
			return
		case message := <-c.send:
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

// writeMessage serializes writes; the websocket connection allows only
// one writer at a time.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// decodeData converts an Event's untyped payload into a concrete struct.
func decodeData(data any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
