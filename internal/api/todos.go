package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/rewards"
)

// handleCreateTodo creates a todo, broadcasts todo-created and
// evaluates the first-task reward.
func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	if requester == "" {
		s.respondError(w, http.StatusBadRequest, "X-User-ID required")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text required")
		return
	}

	todo := &core.Todo{
		ID:     core.TodoID(uuid.New().String()),
		UserID: requester,
		Text:   req.Text,
	}
	if err := s.todos.Insert(r.Context(), todo); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.hub.Broadcast(hub.EventTodoCreated, map[string]any{
		"userId": todo.UserID,
		"todo":   todo,
	})

	s.rewards.Evaluate(r.Context(), rewards.Action{
		Trigger: rewards.TriggerTodoCreated,
		UserID:  requester,
	})

	s.respondJSON(w, http.StatusCreated, todo)
}

// handleUpdateTodo updates a todo's text and done flag. Marking a todo
// done stamps the completion time and evaluates the completion rewards.
func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	todoID := core.TodoID(chi.URLParam(r, "todoID"))

	todo, err := s.todos.GetByID(r.Context(), todoID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if todo.UserID != requester {
		s.respondError(w, http.StatusForbidden, "not your todo")
		return
	}

	var req struct {
		Text *string `json:"text"`
		Done *bool   `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text != nil {
		todo.Text = *req.Text
	}

	completed := false
	if req.Done != nil && *req.Done != todo.Done {
		todo.Done = *req.Done
		if todo.Done {
			now := time.Now().UTC()
			todo.CompletedAt = &now
			completed = true
		} else {
			todo.CompletedAt = nil
		}
	}

	if err := s.todos.Update(r.Context(), todo); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.hub.Broadcast(hub.EventTodoUpdated, map[string]any{
		"userId": todo.UserID,
		"todo":   todo,
	})

	if completed {
		s.rewards.Evaluate(r.Context(), rewards.Action{
			Trigger: rewards.TriggerTodoCompleted,
			UserID:  requester,
		})
	}

	s.respondJSON(w, http.StatusOK, todo)
}

// handleDeleteTodo removes a todo and broadcasts todo-deleted
func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	requester := requesterID(r)
	todoID := core.TodoID(chi.URLParam(r, "todoID"))

	todo, err := s.todos.GetByID(r.Context(), todoID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if todo.UserID != requester {
		s.respondError(w, http.StatusForbidden, "not your todo")
		return
	}

	if err := s.todos.Delete(r.Context(), todoID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.hub.Broadcast(hub.EventTodoDeleted, map[string]any{
		"userId": todo.UserID,
		"todoId": todoID,
	})

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
