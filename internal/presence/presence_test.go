package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
)

// fakeUserStore holds users in memory and records SetOnline calls
type fakeUserStore struct {
	users  map[core.UserID]*core.User
	online []bool
}

func (f *fakeUserStore) GetByID(_ context.Context, id core.UserID) (*core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) SetOnline(_ context.Context, id core.UserID, online bool) error {
	u, ok := f.users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	u.IsOnline = online
	f.online = append(f.online, online)
	return nil
}

// recordingSub captures events sent through the real hub
type recordingSub struct {
	id     string
	userID core.UserID
	events []hub.Event
}

func (r *recordingSub) ID() string          { return r.id }
func (r *recordingSub) UserID() core.UserID { return r.userID }

func (r *recordingSub) Send(e hub.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSub) statusChanges() []hub.Event {
	var out []hub.Event
	for _, e := range r.events {
		if e.Type == hub.EventStatusChange {
			out = append(out, e)
		}
	}
	return out
}

func newFixture(appearOnline bool) (*Tracker, *fakeUserStore, *hub.Hub) {
	users := &fakeUserStore{users: map[core.UserID]*core.User{
		"alice": {ID: "alice", Username: "alice", AppearOnline: appearOnline},
	}}
	h := hub.New()
	return NewTracker(users, h), users, h
}

func TestTracker_ConnectMarksOnlineAndBroadcasts(t *testing.T) {
	tracker, users, h := newFixture(true)
	watcher := &recordingSub{id: "watcher", userID: "bob"}
	h.Subscribe(watcher)

	require.NoError(t, tracker.HandleConnect(context.Background(), "alice"))

	assert.True(t, users.users["alice"].IsOnline)
	changes := watcher.statusChanges()
	require.Len(t, changes, 1)
	payload := changes[0].Payload.(map[string]any)
	assert.Equal(t, core.UserID("alice"), payload["userId"])
	assert.Equal(t, true, payload["isOnline"])
}

func TestTracker_AppearOfflineMasksConnectBroadcast(t *testing.T) {
	tracker, users, h := newFixture(false)
	watcher := &recordingSub{id: "watcher", userID: "bob"}
	h.Subscribe(watcher)

	require.NoError(t, tracker.HandleConnect(context.Background(), "alice"))

	// Durable flag tracks reality, broadcast masks it
	assert.True(t, users.users["alice"].IsOnline)
	changes := watcher.statusChanges()
	require.Len(t, changes, 1)
	payload := changes[0].Payload.(map[string]any)
	assert.Equal(t, false, payload["isOnline"])
}

func TestTracker_ConnectUnknownUserIsNoop(t *testing.T) {
	tracker, users, _ := newFixture(true)

	require.NoError(t, tracker.HandleConnect(context.Background(), "ghost"))
	require.NoError(t, tracker.HandleConnect(context.Background(), ""))

	assert.Empty(t, users.online)
}

func TestTracker_LastDisconnectBroadcastsExactlyOnce(t *testing.T) {
	tracker, users, h := newFixture(true)

	// Two tabs for alice plus a watcher
	h.Subscribe(&recordingSub{id: "alice-1", userID: "alice"})
	h.Subscribe(&recordingSub{id: "alice-2", userID: "alice"})
	watcher := &recordingSub{id: "watcher", userID: "bob"}
	h.Subscribe(watcher)

	require.NoError(t, tracker.HandleConnect(context.Background(), "alice"))
	users.online = nil
	watcher.events = nil

	// First tab closes: alice still connected, nothing happens
	require.NoError(t, tracker.HandleDisconnect(context.Background(), "alice-1"))
	assert.Empty(t, users.online)
	assert.Empty(t, watcher.statusChanges())

	// Last tab closes: one durable write, one broadcast
	require.NoError(t, tracker.HandleDisconnect(context.Background(), "alice-2"))
	require.Equal(t, []bool{false}, users.online)
	changes := watcher.statusChanges()
	require.Len(t, changes, 1)
	payload := changes[0].Payload.(map[string]any)
	assert.Equal(t, core.UserID("alice"), payload["userId"])
	assert.Equal(t, false, payload["isOnline"])
}

func TestTracker_DisconnectUnknownConnectionIsNoop(t *testing.T) {
	tracker, users, h := newFixture(true)
	watcher := &recordingSub{id: "watcher", userID: "bob"}
	h.Subscribe(watcher)

	require.NoError(t, tracker.HandleDisconnect(context.Background(), "never-registered"))

	assert.Empty(t, users.online)
	assert.Empty(t, watcher.statusChanges())
}
