package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/rewards"
)

// handleCreateNote creates a note and evaluates the note rewards
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	if requester == "" {
		s.respondError(w, http.StatusBadRequest, "X-User-ID required")
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note := &core.Note{
		ID:     core.NoteID(uuid.New().String()),
		UserID: requester,
		Title:  req.Title,
		Body:   req.Body,
	}
	if err := s.notes.Insert(r.Context(), note); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.rewards.Evaluate(r.Context(), rewards.Action{
		Trigger:    rewards.TriggerNoteCreated,
		UserID:     requester,
		NoteLength: len(req.Body),
	})

	s.respondJSON(w, http.StatusCreated, note)
}

// handleUpdateNote updates a note and evaluates the edit rewards
// (long note, revising work older than five days).
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	noteID := core.NoteID(chi.URLParam(r, "noteID"))

	note, err := s.notes.GetByID(r.Context(), noteID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if note.UserID != requester {
		s.respondError(w, http.StatusForbidden, "not your note")
		return
	}

	var req struct {
		Title *string `json:"title"`
		Body  *string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Body != nil {
		note.Body = *req.Body
	}

	age := time.Now().UTC().Sub(note.CreatedAt)

	if err := s.notes.Update(r.Context(), note); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.rewards.Evaluate(r.Context(), rewards.Action{
		Trigger:    rewards.TriggerNoteEdited,
		UserID:     requester,
		NoteLength: len(note.Body),
		NoteAge:    age,
	})

	s.respondJSON(w, http.StatusOK, note)
}
