package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope kinds carried over the Redis channel.
const (
	bridgeNotify = "notify"
	bridgeRoom   = "room"
	bridgeUser   = "user"
)

// bridgeEnvelope is the wire format between instances. Origin lets a
// subscriber skip its own publications, so local delivery happens
// exactly once.
type bridgeEnvelope struct {
	Origin  string          `json:"origin"`
	Kind    string          `json:"kind"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge fans events out across instances through Redis pub/sub. It
// wraps the local Hub and satisfies Publisher, so services stay unaware
// of whether they run single- or multi-instance.
type Bridge struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
	origin  string
}

func NewBridge(hub *Hub, rdb *redis.Client, channel string) *Bridge {
	return &Bridge{
		hub:     hub,
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Run subscribes and re-delivers remote events to the local hub. Blocks
// until ctx is cancelled; started as a goroutine in main.go.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	log.Printf("[bridge] subscribed to %s (origin %s)", b.channel, b.origin)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			b.deliver([]byte(msg.Payload))
		}
	}
}

func (b *Bridge) deliver(raw []byte) {
	var env bridgeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("[bridge] bad envelope: %v", err)
		return
	}
	if env.Origin == b.origin {
		return
	}

	switch env.Kind {
	case bridgeNotify:
		var n Notification
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			log.Printf("[bridge] bad notification payload: %v", err)
			return
		}
		b.hub.NotifyUser(env.Target, n)

	case bridgeRoom:
		var event Event
		if err := json.Unmarshal(env.Payload, &event); err != nil {
			log.Printf("[bridge] bad room payload: %v", err)
			return
		}
		b.hub.BroadcastToRoom(env.Target, event)

	case bridgeUser:
		var event Event
		if err := json.Unmarshal(env.Payload, &event); err != nil {
			log.Printf("[bridge] bad user payload: %v", err)
			return
		}
		b.hub.BroadcastToUser(env.Target, event)

	default:
		log.Printf("[bridge] unknown envelope kind: %s", env.Kind)
	}
}

func (b *Bridge) publish(kind, target string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[bridge] failed to marshal payload: %v", err)
		return
	}
	env, err := json.Marshal(bridgeEnvelope{
		Origin:  b.origin,
		Kind:    kind,
		Target:  target,
		Payload: raw,
	})
	if err != nil {
		log.Printf("[bridge] failed to marshal envelope: %v", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, env).Err(); err != nil {
		log.Printf("[bridge] publish failed: %v", err)
	}
}

// NotifyUser delivers locally and republishes for the other instances.
func (b *Bridge) NotifyUser(userID string, n Notification) {
	b.hub.NotifyUser(userID, n)
	b.publish(bridgeNotify, userID, n)
}

func (b *Bridge) BroadcastToRoom(room string, event Event) {
	b.hub.BroadcastToRoom(room, event)
	b.publish(bridgeRoom, room, event)
}

func (b *Bridge) BroadcastToUser(userID string, event Event) {
	b.hub.BroadcastToUser(userID, event)
	b.publish(bridgeUser, userID, event)
}

// IsOnline only knows about this instance. Worst case a remote-online
// user gets a redundant email, which is acceptable for a best-effort
// fallback.
func (b *Bridge) IsOnline(userID string) bool {
	return b.hub.IsOnline(userID)
}
