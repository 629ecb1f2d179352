package rewards

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/storage"
)

// recordingBroadcaster captures broadcasts in order
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []hub.Event
}

func (b *recordingBroadcaster) Broadcast(eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, hub.Event{Type: eventType, Payload: payload})
}

func (b *recordingBroadcaster) notifications() []*core.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*core.Notification
	for _, e := range b.events {
		if e.Type == hub.EventNotification {
			out = append(out, e.Payload.(*core.Notification))
		}
	}
	return out
}

func createTestLedger(t *testing.T) (*Ledger, *storage.UserStore, *storage.NotificationStore, *recordingBroadcaster) {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	users := storage.NewUserStore(db)
	notifications := storage.NewNotificationStore(db)
	broadcaster := &recordingBroadcaster{}

	return NewLedger(users, notifications, broadcaster), users, notifications, broadcaster
}

func createTestUser(t *testing.T, users *storage.UserStore, id core.UserID, xp int) {
	t.Helper()
	require.NoError(t, users.Create(context.Background(), &core.User{
		ID:       id,
		Username: string(id),
		Level:    LevelForXP(xp),
		XP:       xp,
	}))
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 4},
		{450, 5},
		{2500, 26},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestStickerSlots(t *testing.T) {
	tests := []struct {
		level int
		slots int
	}{
		{1, 1},
		{3, 1},
		{4, 2},
		{5, 2},
		{6, 2},
		{7, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.slots, StickerSlots(tt.level), "level=%d", tt.level)
	}
}

func TestLedger_GrantRecordsXPNotification(t *testing.T) {
	ledger, users, notifications, broadcaster := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 0)

	note, err := ledger.Grant(ctx, "alice", 5, "first note")
	require.NoError(t, err)

	assert.Equal(t, core.NotifyXP, note.Type)
	assert.Equal(t, 5, note.Amount)
	assert.Equal(t, "first note", note.Reason)

	user, err := users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, user.XP)
	assert.Equal(t, 1, user.Level)

	stored, err := notifications.ListByUser(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// Broadcast after durable insert
	require.Len(t, broadcaster.notifications(), 1)
}

func TestLedger_GrantLevelUpUnlocksTheme(t *testing.T) {
	ledger, users, _, broadcaster := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 399) // level 4

	_, err := ledger.Grant(ctx, "alice", 51, "20+ calendar events")
	require.NoError(t, err)

	user, err := users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 450, user.XP)
	assert.Equal(t, 5, user.Level)

	sent := broadcaster.notifications()
	require.Len(t, sent, 2, "one xp plus one level-up")

	levelUp := sent[1]
	assert.Equal(t, core.NotifyLevelUp, levelUp.Type)
	assert.Equal(t, 5, levelUp.Level)
	assert.Equal(t, "theme3", levelUp.UnlockedTheme)
	// Levels 4 and 5 both hold two slots, so no fresh sticker here
	assert.False(t, levelUp.UnlockedSticker)
}

func TestLedger_GrantLevelUpUnlocksStickerSlot(t *testing.T) {
	ledger, users, _, broadcaster := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 299) // level 3, one slot

	_, err := ledger.Grant(ctx, "alice", 10, "long note")
	require.NoError(t, err)

	sent := broadcaster.notifications()
	require.Len(t, sent, 2)
	levelUp := sent[1]
	assert.Equal(t, 4, levelUp.Level)
	assert.Empty(t, levelUp.UnlockedTheme)
	assert.True(t, levelUp.UnlockedSticker)
}

func TestLedger_GrantSingleLevelUpAcrossMultipleLevels(t *testing.T) {
	ledger, users, notifications, _ := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 0)

	// Crosses levels 2 and 3 in one grant
	_, err := ledger.Grant(ctx, "alice", 250, "150+ tasks this week")
	require.NoError(t, err)

	stored, err := notifications.ListByUser(ctx, "alice", 10)
	require.NoError(t, err)

	var levelUps int
	for _, n := range stored {
		if n.Type == core.NotifyLevelUp {
			levelUps++
			assert.Equal(t, 3, n.Level)
		}
	}
	assert.Equal(t, 1, levelUps, "exactly one level-up regardless of levels crossed")
}

func TestLedger_GrantNoLevelUpWithinLevel(t *testing.T) {
	ledger, users, notifications, _ := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 10)

	_, err := ledger.Grant(ctx, "alice", 5, "first calendar event")
	require.NoError(t, err)

	stored, err := notifications.ListByUser(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, core.NotifyXP, stored[0].Type)
}

func TestLedger_GrantUnknownUser(t *testing.T) {
	ledger, _, _, _ := createTestLedger(t)

	_, err := ledger.Grant(context.Background(), "ghost", 5, "first note")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestLedger_HasBeenGrantedToday(t *testing.T) {
	ledger, users, _, _ := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 0)

	assert.False(t, ledger.HasBeenGrantedToday(ctx, "alice", "10+ notes"))

	_, err := ledger.Grant(ctx, "alice", 15, "10+ notes")
	require.NoError(t, err)

	assert.True(t, ledger.HasBeenGrantedToday(ctx, "alice", "10+ notes"))
	assert.False(t, ledger.HasBeenGrantedToday(ctx, "alice", "long note"), "dedupe is per reason")
	assert.False(t, ledger.HasBeenGrantedToday(ctx, "bob", "10+ notes"), "dedupe is per user")
}

func TestLedger_HasBeenGrantedTodayIgnoresYesterday(t *testing.T) {
	ledger, users, _, _ := createTestLedger(t)
	ctx := context.Background()
	createTestUser(t, users, "alice", 0)

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	ledger.now = func() time.Time { return yesterday }
	_, err := ledger.Grant(ctx, "alice", 15, "10+ notes")
	require.NoError(t, err)

	ledger.now = time.Now
	assert.False(t, ledger.HasBeenGrantedToday(ctx, "alice", "10+ notes"))
}
