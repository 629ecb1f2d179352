// Package presence applies the online/offline rule around the hub.
//
// The hub only tracks live connections; this package owns the durable
// isOnline flag and the status-change broadcasts that surround
// connect and disconnect.
package presence

import (
	"context"
	"errors"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/logging"
)

// UserStore is the slice of user persistence the tracker needs
type UserStore interface {
	GetByID(ctx context.Context, id core.UserID) (*core.User, error)
	SetOnline(ctx context.Context, id core.UserID, online bool) error
}

// Registry is the slice of the hub the tracker needs
type Registry interface {
	Unsubscribe(id string) core.UserID
	IsConnected(userID core.UserID) bool
	Broadcast(eventType string, payload any)
}

// Tracker applies the presence-update rule on connect and disconnect
type Tracker struct {
	users UserStore
	hub   Registry
}

// NewTracker creates a presence tracker
func NewTracker(users UserStore, registry Registry) *Tracker {
	return &Tracker{users: users, hub: registry}
}

// HandleConnect marks the user online after their connection has been
// registered with the hub. Unauthenticated connections (empty user id)
// are ignored. The appearOnline preference only masks what is
// broadcast; the durable flag always tracks reality.
func (t *Tracker) HandleConnect(ctx context.Context, userID core.UserID) error {
	if userID == "" {
		return nil
	}

	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			logging.Debug("presence: connect for unknown user %s", userID)
			return nil
		}
		return err
	}

	if err := t.users.SetOnline(ctx, userID, true); err != nil {
		return err
	}

	t.hub.Broadcast(hub.EventStatusChange, map[string]any{
		"userId":   userID,
		"isOnline": user.AppearOnline,
	})
	return nil
}

// HandleDisconnect unsubscribes the closed connection and, if that was
// the user's last live connection, persists isOnline=false and
// broadcasts exactly one status-change.
func (t *Tracker) HandleDisconnect(ctx context.Context, connectionID string) error {
	userID := t.hub.Unsubscribe(connectionID)
	if userID == "" {
		return nil
	}
	if t.hub.IsConnected(userID) {
		// Another tab is still open
		return nil
	}

	if err := t.users.SetOnline(ctx, userID, false); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil
		}
		return err
	}

	t.hub.Broadcast(hub.EventStatusChange, map[string]any{
		"userId":   userID,
		"isOnline": false,
	})
	return nil
}
