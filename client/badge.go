package client

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sandwichproject/platform/models"
)

const (
	// pollInterval is the refetch backstop; pushes only make badges
	// fresher, never less correct.
	pollInterval = 30 * time.Second

	// reconnectDelay is the base wait before redialing the notification
	// socket; actual waits add up to 50% jitter so a fleet of clients
	// does not reconnect in lockstep.
	reconnectDelay = 5 * time.Second

	fetchTimeout = 10 * time.Second
)

// BadgeTracker keeps an in-memory copy of the unread counts. Pushes on
// the notification socket and a polling backstop both trigger a refetch;
// the tracker never trusts a push payload, only the REST endpoint.
//
// Without a socket the tracker degrades to polling-only. Stale responses
// are ignored so the last known-good counts survive a server hiccup.
type BadgeTracker struct {
	client   *Client
	onUpdate func(models.UnreadCounts) // optional, called after every change

	mu     sync.RWMutex
	counts models.UnreadCounts

	connMu sync.Mutex
	conn   *websocket.Conn

	refetch chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewBadgeTracker builds a tracker. onUpdate may be nil; it runs on the
// tracker's goroutine and must not block.
func NewBadgeTracker(c *Client, onUpdate func(models.UnreadCounts)) *BadgeTracker {
	return &BadgeTracker{
		client:   c,
		onUpdate: onUpdate,
		refetch:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start fetches once, then runs the poll loop and the socket loop until
// Close.
func (t *BadgeTracker) Start() {
	t.fetch()

	t.wg.Add(2)
	go t.pollLoop()
	go t.socketLoop()
}

// Counts returns the current badge counts.
func (t *BadgeTracker) Counts() models.UnreadCounts {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts
}

// MarkAllRead zeroes the badges optimistically, then tells the server.
// On failure the optimistic zero is reconciled by a refetch.
func (t *BadgeTracker) MarkAllRead(ctx context.Context) error {
	t.setCounts(models.UnreadCounts{})

	if err := t.client.MarkAllRead(ctx); err != nil {
		t.requestRefetch()
		return err
	}
	return nil
}

// Close stops both loops and waits for them. Closing the live socket
// unblocks a reader stuck in ReadMessage.
func (t *BadgeTracker) Close() {
	t.once.Do(func() { close(t.done) })

	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.connMu.Unlock()

	t.wg.Wait()
}

func (t *BadgeTracker) pollLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.fetch()
		case <-t.refetch:
			t.fetch()
		}
	}
}

// socketLoop keeps a notification socket open, reconnecting with
// jittered backoff. Any server frame is treated as "something changed".
func (t *BadgeTracker) socketLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(t.client.notificationsURL(), nil)
		if err != nil {
			log.Printf("[badge] notification socket dial failed: %v", err)
			if !t.sleep(jitteredDelay()) {
				return
			}
			continue
		}

		t.connMu.Lock()
		t.conn = conn
		t.connMu.Unlock()

		if err := t.identifyAndRead(conn); err != nil {
			log.Printf("[badge] notification socket closed: %v", err)
		}
		conn.Close()

		t.connMu.Lock()
		t.conn = nil
		t.connMu.Unlock()

		if !t.sleep(jitteredDelay()) {
			return
		}
	}
}

func (t *BadgeTracker) identifyAndRead(conn *websocket.Conn) error {
	identify, err := json.Marshal(map[string]string{
		"type":   "identify",
		"userId": t.client.userID,
	})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, identify); err != nil {
		return err
	}

	// A reconnect may have missed pushes; refetch to resync.
	t.requestRefetch()

	// The server drops silent connections; any frame counts as liveness.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.done:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-t.done:
			return nil
		default:
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		t.requestRefetch()
	}
}

func (t *BadgeTracker) fetch() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	counts, err := t.client.UnreadCounts(ctx)
	if err != nil {
		log.Printf("[badge] failed to fetch unread counts: %v", err)
		return
	}
	if counts.Stale {
		// The server could not compute; keep what we have.
		return
	}
	t.setCounts(*counts)
}

func (t *BadgeTracker) setCounts(counts models.UnreadCounts) {
	t.mu.Lock()
	t.counts = counts
	t.mu.Unlock()

	if t.onUpdate != nil {
		t.onUpdate(counts)
	}
}

// requestRefetch coalesces; one pending refetch is enough.
func (t *BadgeTracker) requestRefetch() {
	select {
	case t.refetch <- struct{}{}:
	default:
	}
}

// sleep waits d or until Close; reports false when closing.
func (t *BadgeTracker) sleep(d time.Duration) bool {
	select {
	case <-t.done:
		return false
	case <-time.After(d):
		return true
	}
}

func jitteredDelay() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(reconnectDelay) / 2))
	return reconnectDelay + jitter
}
