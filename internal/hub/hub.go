// Package hub implements the presence and fan-out hub for Daygrid.
//
// The hub is a pure delivery mechanism: it holds the registry of live
// connections, answers presence queries and fans typed events out to
// every registered connection. It never touches persistent state.
//
// Broadcast deliberately sends every event to every connection and
// relies on the userId field inside the payload for addressing; clients
// filter on it. That leaks other users' events to every connected
// client, which is a known privacy gap kept for wire compatibility.
// Server-side per-recipient routing would be a change local to this
// package.
package hub

import (
	"sync"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/logging"
)

// Event types delivered over the wire
const (
	EventConnected       = "connected"
	EventNotification    = "notification"
	EventStatusChange    = "status-change"
	EventCalendarCreated = "calendar-created"
	EventCalendarDeleted = "calendar-deleted"
	EventTodoCreated     = "todo-created"
	EventTodoUpdated     = "todo-updated"
	EventTodoDeleted     = "todo-deleted"
	EventFriendAdded     = "friend-added"
)

// Event is a typed message delivered to live connections. Payloads for
// recipient-specific events always carry a userId field.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Subscriber is a live connection able to receive events. Send must not
// block indefinitely; a subscriber that cannot keep up should fail fast
// and let the hub skip it.
type Subscriber interface {
	ID() string
	UserID() core.UserID
	Send(Event) error
}

// Hub manages live connections and event fan-out
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
}

// New creates an empty hub
func New() *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
	}
}

// Subscribe registers a connection. A user may hold several
// simultaneous connections (multiple tabs); each registers separately.
func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub.ID()] = sub
}

// Unsubscribe removes the connection with the given id and returns its
// associated user id, or "" if the connection was not registered. Safe
// to call more than once for the same connection.
func (h *Hub) Unsubscribe(id string) core.UserID {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscribers[id]
	if !ok {
		return ""
	}
	delete(h.subscribers, id)
	return sub.UserID()
}

// IsConnected reports whether the user has at least one live connection
func (h *Hub) IsConnected(userID core.UserID) bool {
	if userID == "" {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		if sub.UserID() == userID {
			return true
		}
	}
	return false
}

// ConnectionCount returns the number of live connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast delivers the event to every registered connection. A failed
// send is logged and skipped; it never aborts delivery to the rest.
func (h *Hub) Broadcast(eventType string, payload any) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	event := Event{Type: eventType, Payload: payload}
	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			logging.WithField("connection", sub.ID()).Warn("dropping event %q: %v", eventType, err)
		}
	}
}
