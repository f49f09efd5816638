package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sandwichproject/platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves just enough of the REST and notification surface
// for the tracker: mutable counts, a failable mark-all-read, and a push
// hook on the notification socket.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	counts       models.UnreadCounts
	markAllFails bool
	markAllCalls int
	fetchCalls   int

	connMu sync.Mutex
	conn   *websocket.Conn

	identified chan string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{t: t, identified: make(chan string, 4)}

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/message-notifications/unread-counts", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.fetchCalls++
		counts := b.counts
		b.mu.Unlock()
		writeEnvelope(w, http.StatusOK, counts)
	})

	mux.HandleFunc("POST /api/message-notifications/mark-all-read", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.markAllCalls++
		fails := b.markAllFails
		if !fails {
			b.counts = models.UnreadCounts{}
		}
		b.mu.Unlock()
		if fails {
			writeError(w, http.StatusInternalServerError, "mark all read failed")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var frame struct {
			Type   string `json:"type"`
			UserID string `json:"userId"`
		}
		if err := conn.ReadJSON(&frame); err != nil || frame.Type != "identify" {
			conn.Close()
			return
		}
		b.identified <- frame.UserID
		b.connMu.Lock()
		b.conn = conn
		b.connMu.Unlock()
		// Drain keepalives until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) setCounts(counts models.UnreadCounts) {
	b.mu.Lock()
	b.counts = counts
	b.mu.Unlock()
}

// push sends one notification frame over the open socket.
func (b *fakeBackend) push(t *testing.T) {
	t.Helper()
	b.connMu.Lock()
	defer b.connMu.Unlock()
	require.NotNil(t, b.conn, "no notification socket connected")
	require.NoError(t, b.conn.WriteJSON(map[string]string{
		"type": "new_message", "committee": "general", "sender": "Ana", "content": "hi",
	}))
}

func (b *fakeBackend) fetches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetchCalls
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func newTracker(t *testing.T, b *fakeBackend, onUpdate func(models.UnreadCounts)) *BadgeTracker {
	t.Helper()
	c := New(Config{BaseURL: b.server.URL, Token: "tok", UserID: "u1"})
	tracker := NewBadgeTracker(c, onUpdate)
	tracker.Start()
	t.Cleanup(tracker.Close)
	return tracker
}

func TestBadgeTracker_InitialFetch(t *testing.T) {
	b := newFakeBackend(t)
	b.setCounts(models.UnreadCounts{General: 2, Direct: 1, Total: 3})

	tracker := newTracker(t, b, nil)

	counts := tracker.Counts()
	assert.Equal(t, 3, counts.Total, "Start fetches synchronously before returning")

	// The socket loop identifies with the configured user.
	select {
	case userID := <-b.identified:
		assert.Equal(t, "u1", userID)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never identified on the notification socket")
	}
}

func TestBadgeTracker_PushTriggersRefetch(t *testing.T) {
	b := newFakeBackend(t)
	b.setCounts(models.UnreadCounts{Total: 1, General: 1})

	var mu sync.Mutex
	var updates []int
	tracker := newTracker(t, b, func(c models.UnreadCounts) {
		mu.Lock()
		updates = append(updates, c.Total)
		mu.Unlock()
	})

	select {
	case <-b.identified:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never connected")
	}

	// A push never carries counts; the tracker refetches instead.
	b.setCounts(models.UnreadCounts{Total: 5, General: 5})
	b.push(t)

	require.Eventually(t, func() bool {
		return tracker.Counts().Total == 5
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, updates, 5)
}

func TestBadgeTracker_MarkAllReadOptimistic(t *testing.T) {
	b := newFakeBackend(t)
	b.setCounts(models.UnreadCounts{Total: 4, General: 4})
	tracker := newTracker(t, b, nil)
	require.Equal(t, 4, tracker.Counts().Total)

	require.NoError(t, tracker.MarkAllRead(context.Background()))
	assert.Equal(t, 0, tracker.Counts().Total, "badges zero immediately")
}

func TestBadgeTracker_MarkAllReadFailureReconciles(t *testing.T) {
	b := newFakeBackend(t)
	b.setCounts(models.UnreadCounts{Total: 4, General: 4})
	b.mu.Lock()
	b.markAllFails = true
	b.mu.Unlock()

	tracker := newTracker(t, b, nil)
	require.Equal(t, 4, tracker.Counts().Total)

	err := tracker.MarkAllRead(context.Background())
	require.Error(t, err)

	// The optimistic zero is corrected by the follow-up refetch.
	require.Eventually(t, func() bool {
		return tracker.Counts().Total == 4
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBadgeTracker_StaleResponseKeepsLastGood(t *testing.T) {
	b := newFakeBackend(t)
	b.setCounts(models.UnreadCounts{Total: 2, General: 2})
	tracker := newTracker(t, b, nil)
	require.Equal(t, 2, tracker.Counts().Total)

	select {
	case <-b.identified:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never connected")
	}

	// The server degrades to the stale fallback; the tracker must not
	// replace real counts with zeros.
	b.setCounts(models.UnreadCounts{Stale: true})
	before := b.fetches()
	b.push(t)

	require.Eventually(t, func() bool {
		return b.fetches() > before
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, tracker.Counts().Total)
}

func TestBadgeTracker_PollingOnlyWithoutSocket(t *testing.T) {
	// REST only; every socket dial fails.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/message-notifications/unread-counts", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, models.UnreadCounts{Total: 7, General: 7})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := New(Config{BaseURL: server.URL, Token: "tok", UserID: "u1"})
	tracker := NewBadgeTracker(c, nil)
	tracker.Start()
	t.Cleanup(tracker.Close)

	assert.Equal(t, 7, tracker.Counts().Total, "the tracker works without a socket")

	closed := make(chan struct{})
	go func() {
		tracker.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung while the socket loop was in reconnect backoff")
	}
}

func TestBadgeTracker_CloseReturnsPromptly(t *testing.T) {
	b := newFakeBackend(t)
	tracker := newTracker(t, b, nil)

	select {
	case <-b.identified:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never connected")
	}

	closed := make(chan struct{})
	go func() {
		tracker.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return; a socket reader is stuck")
	}
}
