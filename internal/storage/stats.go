package storage

import (
	"context"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// Stats bundles the count queries the reward rules evaluate. It exists
// so the rewards package can depend on a single narrow collaborator
// instead of three stores.
type Stats struct {
	tasks *TaskStore
	todos *TodoStore
	notes *NoteStore
}

// NewStats creates a stats view over the given stores
func NewStats(tasks *TaskStore, todos *TodoStore, notes *NoteStore) *Stats {
	return &Stats{tasks: tasks, todos: todos, notes: notes}
}

// TaskCountByOwner returns the user's owned task count
func (s *Stats) TaskCountByOwner(ctx context.Context, userID core.UserID) (int, error) {
	return s.tasks.CountByOwner(ctx, userID)
}

// TaskCountByOwnerOnDate returns the user's owned task count for one calendar date
func (s *Stats) TaskCountByOwnerOnDate(ctx context.Context, userID core.UserID, date string) (int, error) {
	return s.tasks.CountByOwnerOnDate(ctx, userID, date)
}

// NoteCountByUser returns the user's note count
func (s *Stats) NoteCountByUser(ctx context.Context, userID core.UserID) (int, error) {
	return s.notes.CountByUser(ctx, userID)
}

// TodoCountByUser returns the user's todo count
func (s *Stats) TodoCountByUser(ctx context.Context, userID core.UserID) (int, error) {
	return s.todos.CountByUser(ctx, userID)
}

// TodoCompletedCountOnDay returns the user's completions on one UTC day
func (s *Stats) TodoCompletedCountOnDay(ctx context.Context, userID core.UserID, day time.Time) (int, error) {
	return s.todos.CompletedCountOnDay(ctx, userID, day)
}

// TodoCompletedCountSince returns the user's completions at or after since
func (s *Stats) TodoCompletedCountSince(ctx context.Context, userID core.UserID, since time.Time) (int, error) {
	return s.todos.CompletedCountSince(ctx, userID, since)
}
