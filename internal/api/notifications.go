package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daygrid/daygrid/internal/core"
)

// handleGetNotifications returns the requester's notifications,
// newest first
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "X-User-ID required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := s.notifications.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	unread, err := s.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"unreadCount":   unread,
	})
}

// handleMarkAllNotificationsRead marks every notification for the
// requester as read
func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "X-User-ID required")
		return
	}

	if err := s.notifications.MarkAllRead(r.Context(), userID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMarkNotificationRead marks a single notification as read
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := core.NotificationID(chi.URLParam(r, "id"))

	n, err := s.notifications.GetByID(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if n.UserID != requesterID(r) {
		s.respondError(w, http.StatusForbidden, "not your notification")
		return
	}

	if err := s.notifications.MarkRead(r.Context(), id); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
