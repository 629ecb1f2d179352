package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/rewards"
)

// CreateTaskRequest is the request body for creating a shared calendar task
type CreateTaskRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	CalendarDate string        `json:"calendarDate"`
	Participants []core.UserID `json:"participants"`
}

// handleCreateTask creates a shared calendar task owned by the
// requester and evaluates the calendar reward rules.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	if requester == "" {
		s.respondError(w, http.StatusBadRequest, "X-User-ID required")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.CalendarDate == "" {
		s.respondError(w, http.StatusBadRequest, "title and calendarDate required")
		return
	}

	task := &core.Task{
		OwnerID:      requester,
		Participants: req.Participants,
		Title:        req.Title,
		Description:  req.Description,
		CalendarDate: req.CalendarDate,
	}

	task, err := s.calendar.Create(r.Context(), task)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.rewards.Evaluate(r.Context(), rewards.Action{
		Trigger:      rewards.TriggerCalendarEventCreated,
		UserID:       requester,
		CalendarDate: task.CalendarDate,
	})

	s.respondJSON(w, http.StatusCreated, task)
}

// handleRemoveTask runs the ownership-transfer machine for the
// requester leaving or deleting the task.
func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	taskID := core.TaskID(chi.URLParam(r, "taskID"))

	outcome, err := s.calendar.Remove(r.Context(), taskID, requester)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"deleted": outcome.Deleted,
		"task":    outcome.Task,
	})
}
