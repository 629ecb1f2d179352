package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/logging"
)

// sendBuffer is the per-connection event queue. A connection that
// cannot drain this many events is considered stuck and starts
// dropping; it never stalls delivery to other connections.
const sendBuffer = 64

// wsClient adapts one WebSocket connection to hub.Subscriber
type wsClient struct {
	id     string
	userID core.UserID
	conn   *websocket.Conn
	send   chan hub.Event
	done   chan struct{}
}

func newWSClient(conn *websocket.Conn, userID core.UserID) *wsClient {
	return &wsClient{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		send:   make(chan hub.Event, sendBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the connection id
func (c *wsClient) ID() string { return c.id }

// UserID returns the associated user id, "" for unauthenticated streams
func (c *wsClient) UserID() core.UserID { return c.userID }

// Send queues an event for delivery. Never blocks: a full buffer fails
// the send and the hub logs and skips this connection.
func (c *wsClient) Send(event hub.Event) error {
	select {
	case c.send <- event:
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// writePump owns all writes to the connection
func (c *wsClient) writePump() {
	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// handleWebSocket upgrades the connection, sends the initial connected
// event, registers the stream with the hub and runs the presence rule.
// The optional user_id query parameter associates the stream with a
// user; anonymous streams still receive broadcasts.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := core.UserID(r.URL.Query().Get("user_id"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := newWSClient(conn, userID)
	client.send <- hub.Event{Type: hub.EventConnected}
	go client.writePump()

	s.hub.Subscribe(client)
	if err := s.presence.HandleConnect(r.Context(), userID); err != nil {
		logging.Warn("presence connect for user %s: %v", userID, err)
	}

	// Inbound frames are ignored; the read loop only detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// The request context is done once the handler unwinds; cleanup
	// uses its own.
	if err := s.presence.HandleDisconnect(context.Background(), client.id); err != nil {
		logging.Warn("presence disconnect for user %s: %v", userID, err)
	}
	close(client.done)
}
