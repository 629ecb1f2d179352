// Package rewards implements the Daygrid experience ledger: granting
// XP, recomputing levels, unlocking themes and sticker slots, and
// enforcing once-per-day reward idempotency.
package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/logging"
)

// UserStore is the slice of user persistence the ledger needs
type UserStore interface {
	GetByID(ctx context.Context, id core.UserID) (*core.User, error)
	UpdateXP(ctx context.Context, id core.UserID, xp, level int) error
}

// NotificationStore is the slice of notification persistence the
// ledger needs. Insert must be durable before it returns; the ledger
// broadcasts only after a successful insert.
type NotificationStore interface {
	Insert(ctx context.Context, n *core.Notification) error
	ExistsForUserOnDay(ctx context.Context, userID core.UserID, reason string, day time.Time) (bool, error)
}

// Broadcaster delivers events to live connections
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// Theme unlocks by level. Levels not present unlock nothing.
var themeUnlocks = map[int]string{
	5:  "theme3",
	10: "theme4",
	18: "theme5",
	26: "theme6",
}

// LevelForXP returns the level for a given amount of experience
func LevelForXP(xp int) int {
	return xp/100 + 1
}

// StickerSlots returns the number of sticker slots available at a level.
// A new slot opens every third level.
func StickerSlots(level int) int {
	return 1 + (level-1)/3
}

// Ledger grants experience and records the resulting notifications
type Ledger struct {
	users         UserStore
	notifications NotificationStore
	broadcaster   Broadcaster

	now func() time.Time
}

// NewLedger creates a reward ledger
func NewLedger(users UserStore, notifications NotificationStore, broadcaster Broadcaster) *Ledger {
	return &Ledger{
		users:         users,
		notifications: notifications,
		broadcaster:   broadcaster,
		now:           time.Now,
	}
}

// HasBeenGrantedToday reports whether an xp notification with the same
// reason was already recorded for the user on the current UTC calendar
// day. Fails closed: any store error reads as "not granted".
func (l *Ledger) HasBeenGrantedToday(ctx context.Context, userID core.UserID, reason string) bool {
	exists, err := l.notifications.ExistsForUserOnDay(ctx, userID, reason, l.now().UTC())
	if err != nil {
		logging.Debug("dedupe check for %q failed, assuming not granted: %v", reason, err)
		return false
	}
	return exists
}

// Grant unconditionally adds amount XP to the user, recomputes the
// level, records an xp notification and, if the level rose, exactly one
// level-up notification (only old vs. new level matters, not any
// intermediate levels crossed). Each notification is broadcast as a
// notification event after it has been durably recorded, xp before
// level-up. Callers enforcing daily idempotency must check
// HasBeenGrantedToday first.
func (l *Ledger) Grant(ctx context.Context, userID core.UserID, amount int, reason string) (*core.Notification, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldLevel := user.Level
	newXP := user.XP + amount
	newLevel := LevelForXP(newXP)

	if err := l.users.UpdateXP(ctx, userID, newXP, newLevel); err != nil {
		return nil, fmt.Errorf("update xp: %w", err)
	}

	xpNote := &core.Notification{
		ID:        core.NotificationID(uuid.New().String()),
		UserID:    userID,
		Type:      core.NotifyXP,
		Reason:    reason,
		Amount:    amount,
		CreatedAt: l.now().UTC(),
	}
	if err := l.notifications.Insert(ctx, xpNote); err != nil {
		return nil, fmt.Errorf("record xp notification: %w", err)
	}
	l.broadcaster.Broadcast(hub.EventNotification, xpNote)

	if newLevel > oldLevel {
		levelNote := &core.Notification{
			ID:              core.NotificationID(uuid.New().String()),
			UserID:          userID,
			Type:            core.NotifyLevelUp,
			Level:           newLevel,
			UnlockedTheme:   themeUnlocks[newLevel],
			UnlockedSticker: StickerSlots(newLevel) > StickerSlots(oldLevel),
			CreatedAt:       l.now().UTC(),
		}
		if err := l.notifications.Insert(ctx, levelNote); err != nil {
			return xpNote, fmt.Errorf("record level-up notification: %w", err)
		}
		l.broadcaster.Broadcast(hub.EventNotification, levelNote)
	}

	return xpNote, nil
}
