package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/rewards"
)

// handleCreateUser registers a new user at level 1 with zero XP
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		s.respondError(w, http.StatusBadRequest, "username required")
		return
	}

	user := &core.User{
		ID:           core.UserID(uuid.New().String()),
		Username:     req.Username,
		Level:        1,
		XP:           0,
		AppearOnline: true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

// handleSetProfilePhoto sets the user's profile photo. The very first
// photo a user ever sets earns a reward; replacements do not.
func (s *Server) handleSetProfilePhoto(w http.ResponseWriter, r *http.Request) {
	userID := core.UserID(chi.URLParam(r, "userID"))
	if requesterID(r) != userID {
		s.respondError(w, http.StatusForbidden, "cannot edit another user's profile")
		return
	}

	var req struct {
		PhotoURL string `json:"photoUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhotoURL == "" {
		s.respondError(w, http.StatusBadRequest, "photoUrl required")
		return
	}

	first, err := s.users.SetProfilePhoto(r.Context(), userID, req.PhotoURL)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if first {
		s.rewards.Evaluate(r.Context(), rewards.Action{
			Trigger: rewards.TriggerProfilePhotoSet,
			UserID:  userID,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"photoUrl": req.PhotoURL, "first": first})
}

// handleSetAppearOnline toggles presence visibility. The flag masks
// the connect broadcast only; disconnect announcements always fire.
func (s *Server) handleSetAppearOnline(w http.ResponseWriter, r *http.Request) {
	userID := core.UserID(chi.URLParam(r, "userID"))
	if requesterID(r) != userID {
		s.respondError(w, http.StatusForbidden, "cannot edit another user's profile")
		return
	}

	var req struct {
		AppearOnline *bool `json:"appearOnline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppearOnline == nil {
		s.respondError(w, http.StatusBadRequest, "appearOnline required")
		return
	}

	if err := s.users.SetAppearOnline(r.Context(), userID, *req.AppearOnline); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"appearOnline": *req.AppearOnline})
}
