package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandwichproject/platform/models"
)

func TestReadMarkerRepo_UpsertIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	markers := NewSQLiteReadMarkerRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermGeneralChat)
	later := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	earlier := later.Add(-time.Minute)

	require.NoError(t, markers.Upsert(ctx, alice.ID, models.RoomGeneral, later))

	// An older boundary must not move the marker backward.
	require.NoError(t, markers.Upsert(ctx, alice.ID, models.RoomGeneral, earlier))

	marker, err := markers.Get(ctx, alice.ID, models.RoomGeneral)
	require.NoError(t, err)
	assert.True(t, marker.LastReadAt.Equal(later), "marker moved backward: %v", marker.LastReadAt)

	// Repeating the same boundary is a no-op.
	require.NoError(t, markers.Upsert(ctx, alice.ID, models.RoomGeneral, later))
	marker, err = markers.Get(ctx, alice.ID, models.RoomGeneral)
	require.NoError(t, err)
	assert.True(t, marker.LastReadAt.Equal(later))
}

func TestReadMarkerRepo_GetNeverVisited(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	markers := NewSQLiteReadMarkerRepo(db.Conn)

	alice := seedUser(t, users, "alice@example.org")

	marker, err := markers.Get(context.Background(), alice.ID, models.RoomGeneral)
	require.NoError(t, err)
	assert.True(t, marker.LastReadAt.IsZero())
}

func TestReadMarkerRepo_RoomUnreadCounts(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	markers := NewSQLiteReadMarkerRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermGeneralChat, models.PermHostChat)
	bob := seedUser(t, users, "bob@example.org", models.PermGeneralChat, models.PermHostChat)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Bob posts three times in general, once in hosts; Alice posts once
	// herself (never counts against her).
	seedMessage(t, db, messages, models.RoomGeneral, bob, "one", base)
	seedMessage(t, db, messages, models.RoomGeneral, bob, "two", base.Add(time.Second))
	seedMessage(t, db, messages, models.RoomGeneral, bob, "three", base.Add(2*time.Second))
	seedMessage(t, db, messages, models.RoomHosts, bob, "hosts", base)
	seedMessage(t, db, messages, models.RoomGeneral, alice, "own message", base.Add(3*time.Second))

	rooms := []string{models.RoomGeneral, models.RoomHosts, models.RoomDrivers}

	t.Run("no marker counts everything by others", func(t *testing.T) {
		counts := roomCountMap(t, markers, alice.ID, rooms)
		assert.Equal(t, 3, counts[models.RoomGeneral])
		assert.Equal(t, 1, counts[models.RoomHosts])
		assert.Zero(t, counts[models.RoomDrivers])
	})

	t.Run("marker filters strictly after", func(t *testing.T) {
		// Read up to "two": only "three" remains (Alice's own message is
		// newer but never counts).
		require.NoError(t, markers.Upsert(ctx, alice.ID, models.RoomGeneral, base.Add(time.Second)))
		counts := roomCountMap(t, markers, alice.ID, rooms)
		assert.Equal(t, 1, counts[models.RoomGeneral])
	})

	t.Run("deleted messages stop counting", func(t *testing.T) {
		got, err := messages.ListByChannel(ctx, models.RoomHosts, time.Time{}, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NoError(t, messages.SoftDelete(ctx, got[0].ID))

		counts := roomCountMap(t, markers, alice.ID, rooms)
		assert.Zero(t, counts[models.RoomHosts])
	})

	t.Run("marker at latest message means zero", func(t *testing.T) {
		require.NoError(t, markers.Upsert(ctx, alice.ID, models.RoomGeneral, base.Add(3*time.Second)))
		counts := roomCountMap(t, markers, alice.ID, rooms)
		assert.Zero(t, counts[models.RoomGeneral])
	})
}

func TestReadMarkerRepo_ConversationUnreadCounts(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	markers := NewSQLiteReadMarkerRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermDirectMessages, models.PermGroupMessages)
	bob := seedUser(t, users, "bob@example.org", models.PermDirectMessages, models.PermGroupMessages)
	carol := seedUser(t, users, "carol@example.org", models.PermGroupMessages)

	dm := &models.Conversation{Type: models.ConversationDirect, CreatedBy: alice.ID, Participants: []string{alice.ID, bob.ID}}
	require.NoError(t, convs.Create(ctx, dm))
	group := &models.Conversation{Type: models.ConversationHost, Name: "hosting crew", CreatedBy: bob.ID, Participants: []string{alice.ID, bob.ID, carol.ID}}
	require.NoError(t, convs.Create(ctx, group))
	// A conversation Alice is not part of must not contribute.
	other := &models.Conversation{Type: models.ConversationDirect, CreatedBy: bob.ID, Participants: []string{bob.ID, carol.ID}}
	require.NoError(t, convs.Create(ctx, other))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedMessage(t, db, messages, dm.ID, bob, "dm one", base)
	seedMessage(t, db, messages, dm.ID, bob, "dm two", base.Add(time.Second))
	seedMessage(t, db, messages, group.ID, carol, "group one", base)
	seedMessage(t, db, messages, other.ID, bob, "not for alice", base)
	seedMessage(t, db, messages, dm.ID, alice, "own dm reply", base.Add(2*time.Second))

	got, err := markers.ConversationUnreadCounts(ctx, alice.ID)
	require.NoError(t, err)

	byType := map[string]int{}
	for _, c := range got {
		byType[c.Type] += c.Count
	}
	assert.Equal(t, 2, byType[models.ConversationDirect])
	assert.Equal(t, 1, byType[models.ConversationHost])

	// Reading the DM clears its bucket.
	require.NoError(t, markers.Upsert(ctx, alice.ID, dm.ID, base.Add(time.Second)))
	got, err = markers.ConversationUnreadCounts(ctx, alice.ID)
	require.NoError(t, err)
	byType = map[string]int{}
	for _, c := range got {
		byType[c.Type] += c.Count
	}
	assert.Zero(t, byType[models.ConversationDirect])
	assert.Equal(t, 1, byType[models.ConversationHost])
}

func TestReadMarkerRepo_UpsertAll(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	markers := NewSQLiteReadMarkerRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	channels := []string{models.RoomGeneral, models.RoomHosts, "conv-1"}

	require.NoError(t, markers.UpsertAll(ctx, alice.ID, channels, now))

	for _, ch := range channels {
		marker, err := markers.Get(ctx, alice.ID, ch)
		require.NoError(t, err)
		assert.True(t, marker.LastReadAt.Equal(now), "channel %s", ch)
	}

	// Still monotonic per channel: a newer individual marker survives a
	// later bulk stamp with an older time.
	require.NoError(t, markers.Upsert(ctx, alice.ID, models.RoomGeneral, now.Add(time.Hour)))
	require.NoError(t, markers.UpsertAll(ctx, alice.ID, channels, now.Add(time.Minute)))

	marker, err := markers.Get(ctx, alice.ID, models.RoomGeneral)
	require.NoError(t, err)
	assert.True(t, marker.LastReadAt.Equal(now.Add(time.Hour)))
}

func roomCountMap(t *testing.T, markers ReadMarkerRepository, userID string, rooms []string) map[string]int {
	t.Helper()
	got, err := markers.RoomUnreadCounts(context.Background(), userID, rooms)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, rc := range got {
		counts[rc.Room] = rc.Count
	}
	return counts
}
