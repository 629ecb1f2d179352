// Package api provides the HTTP API server for Daygrid.
//
// Authentication is owned by an outer layer; handlers trust the
// X-User-ID header to carry the requester's identity.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/daygrid/daygrid/internal/calendar"
	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/presence"
	"github.com/daygrid/daygrid/internal/rewards"
	"github.com/daygrid/daygrid/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	// Components
	hub      *hub.Hub
	presence *presence.Tracker
	rewards  *rewards.Engine
	calendar *calendar.Service

	// Stores
	users         *storage.UserStore
	notifications *storage.NotificationStore
	tasks         *storage.TaskStore
	todos         *storage.TodoStore
	notes         *storage.NoteStore
	friends       *storage.FriendStore

	upgrader websocket.Upgrader
}

// Config for the server
type Config struct {
	Host string
	Port int
	DB   *storage.DB
}

// New creates a new API server and wires the core components together
func New(cfg Config) *Server {
	users := storage.NewUserStore(cfg.DB)
	notifications := storage.NewNotificationStore(cfg.DB)
	tasks := storage.NewTaskStore(cfg.DB)
	todos := storage.NewTodoStore(cfg.DB)
	notes := storage.NewNoteStore(cfg.DB)
	friends := storage.NewFriendStore(cfg.DB)

	h := hub.New()
	ledger := rewards.NewLedger(users, notifications, h)

	s := &Server{
		hub:           h,
		presence:      presence.NewTracker(users, h),
		rewards:       rewards.NewEngine(ledger, storage.NewStats(tasks, todos, notes)),
		calendar:      calendar.NewService(tasks, notifications, h),
		users:         users,
		notifications: notifications,
		tasks:         tasks,
		todos:         todos,
		notes:         notes,
		friends:       friends,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Hub returns the fan-out hub
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Users
		r.Post("/users", s.handleCreateUser)
		r.Put("/users/{userID}/photo", s.handleSetProfilePhoto)
		r.Put("/users/{userID}/appear-online", s.handleSetAppearOnline)

		// Shared calendar tasks
		r.Post("/tasks", s.handleCreateTask)
		r.Delete("/tasks/{taskID}", s.handleRemoveTask)

		// Todos
		r.Post("/todos", s.handleCreateTodo)
		r.Put("/todos/{todoID}", s.handleUpdateTodo)
		r.Delete("/todos/{todoID}", s.handleDeleteTodo)

		// Notes
		r.Post("/notes", s.handleCreateNote)
		r.Put("/notes/{noteID}", s.handleUpdateNote)

		// Friend requests
		r.Post("/friends/requests", s.handleCreateFriendRequest)
		r.Post("/friends/requests/{requestID}/accept", s.handleAcceptFriendRequest)
		r.Post("/friends/requests/{requestID}/decline", s.handleDeclineFriendRequest)

		// Notifications
		r.Get("/notifications", s.handleGetNotifications)
		r.Post("/notifications/read-all", s.handleMarkAllNotificationsRead)
		r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
	})

	// WebSocket event stream (long-lived; outside the timeout group)
	r.Get("/ws", s.handleWebSocket)

	r.Get("/health", s.handleHealth)

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"connections": s.hub.ConnectionCount(),
		"timestamp":   time.Now().UTC(),
	})
}

// --- Request helpers ---

// requesterID extracts the caller's identity set by the auth layer
func requesterID(r *http.Request) core.UserID {
	return core.UserID(r.Header.Get("X-User-ID"))
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps core errors onto HTTP statuses
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrTaskNotFound),
		errors.Is(err, core.ErrTodoNotFound),
		errors.Is(err, core.ErrNoteNotFound),
		errors.Is(err, core.ErrNotificationNotFound),
		errors.Is(err, core.ErrFriendRequestNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNotStakeholder):
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrRequestNotPending):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrMissingRequired):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
