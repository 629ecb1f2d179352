package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/logging"
	"github.com/daygrid/daygrid/internal/rewards"
)

// handleCreateFriendRequest sends a friend request and notifies the
// recipient.
func (s *Server) handleCreateFriendRequest(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	if requester == "" {
		s.respondError(w, http.StatusBadRequest, "X-User-ID required")
		return
	}

	var req struct {
		ToID core.UserID `json:"toId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToID == "" {
		s.respondError(w, http.StatusBadRequest, "toId required")
		return
	}
	if req.ToID == requester {
		s.respondError(w, http.StatusBadRequest, "cannot befriend yourself")
		return
	}

	if _, err := s.users.GetByID(r.Context(), req.ToID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	fr := &core.FriendRequest{
		ID:     core.FriendRequestID(uuid.New().String()),
		FromID: requester,
		ToID:   req.ToID,
		Status: core.FriendRequestPending,
	}
	if err := s.friends.Insert(r.Context(), fr); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.notifyFriendState(r.Context(), core.NotifyFriendRequest, req.ToID, requester)

	s.respondJSON(w, http.StatusCreated, fr)
}

// handleAcceptFriendRequest accepts a pending request, notifies the
// sender, broadcasts friend-added for both parties and grants the
// new-friend reward to each.
func (s *Server) handleAcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	requestID := core.FriendRequestID(chi.URLParam(r, "requestID"))

	fr, err := s.friends.GetByID(r.Context(), requestID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if fr.ToID != requester {
		s.respondError(w, http.StatusForbidden, "not your request")
		return
	}

	if err := s.friends.UpdateStatus(r.Context(), requestID, core.FriendRequestAccepted); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.notifyFriendState(r.Context(), core.NotifyFriendAccepted, fr.FromID, fr.ToID)

	s.hub.Broadcast(hub.EventFriendAdded, map[string]any{
		"userId":   fr.FromID,
		"friendId": fr.ToID,
	})
	s.hub.Broadcast(hub.EventFriendAdded, map[string]any{
		"userId":   fr.ToID,
		"friendId": fr.FromID,
	})

	// Both parties earn the reward, uncapped
	for _, id := range []core.UserID{fr.FromID, fr.ToID} {
		s.rewards.Evaluate(r.Context(), rewards.Action{
			Trigger: rewards.TriggerFriendAccepted,
			UserID:  id,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// handleDeclineFriendRequest declines a pending request and notifies
// the sender. No reward, no friend-added event.
func (s *Server) handleDeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	requestID := core.FriendRequestID(chi.URLParam(r, "requestID"))

	fr, err := s.friends.GetByID(r.Context(), requestID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if fr.ToID != requester {
		s.respondError(w, http.StatusForbidden, "not your request")
		return
	}

	if err := s.friends.UpdateStatus(r.Context(), requestID, core.FriendRequestDeclined); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.notifyFriendState(r.Context(), core.NotifyFriendDeclined, fr.FromID, fr.ToID)

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// notifyFriendState records a friend-state notification for userID and
// broadcasts it once durable. Best-effort: a failed record drops the
// broadcast but not the request.
func (s *Server) notifyFriendState(ctx context.Context, typ core.NotificationType, userID, actor core.UserID) {
	n := &core.Notification{
		ID:        core.NotificationID(uuid.New().String()),
		UserID:    userID,
		Type:      typ,
		ActorID:   actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Insert(ctx, n); err != nil {
		logging.Error("friend notification for user %s lost: %v", userID, err)
		return
	}
	s.hub.Broadcast(hub.EventNotification, n)
}
