// Package ws manages WebSocket connections and real-time delivery.
//
// Two wire dialects share one Hub:
//   - the notification socket (/notifications) speaks flat frames like
//     {"type":"new_message","committee":...} after an identify handshake
//   - the chat socket (/ws/chat) speaks enveloped events {op, d, seq}
//
// The Hub only routes. Persistence and permission checks live in the
// service layer and reach the Hub through callbacks wired in main.go.
package ws

// Event is an enveloped chat-socket message. Seq increases per outbound
// event so clients can detect gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server operations.
const (
	OpHeartbeat      = "heartbeat"
	OpJoinRoom       = "join_room"
	OpLeaveRoom      = "leave_room"
	OpSendMessage    = "send_message"
	OpDeleteMessage  = "delete_message"
	OpGetRoomHistory = "get_room_history"
)

// Server -> client operations.
const (
	OpRooms          = "rooms"
	OpHeartbeatAck   = "heartbeat_ack"
	OpNewMessage     = "new_message"
	OpMessageDeleted = "message_deleted"
	OpRoomHistory    = "room_history"
	OpUserJoined     = "user_joined"
	OpUserLeft       = "user_left"
	OpError          = "error"
)

// Notification is a flat frame for the notification socket. Type is
// "new_message" for pushes; clients treat any push as a hint to refetch
// counts, so the payload carries context only.
type Notification struct {
	Type      string `json:"type"`
	Committee string `json:"committee,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Content   string `json:"content,omitempty"`
}

// RoomData names a room in join/leave/history requests.
type RoomData struct {
	Room string `json:"room"`
}

// SendMessageData is the payload of a send_message op.
type SendMessageData struct {
	Room    string `json:"room"`
	Content string `json:"content"`
}

// DeleteMessageData is the payload of a delete_message op.
type DeleteMessageData struct {
	MessageID string `json:"message_id"`
}

// RoomsData lists the rooms a user may join. Sent once on connect.
type RoomsData struct {
	Rooms []string `json:"rooms"`
}

// PresenceData announces a user entering or leaving a room.
type PresenceData struct {
	Room   string `json:"room"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// ErrorData carries a human-readable failure back to one client.
type ErrorData struct {
	Message string `json:"message"`
}
