package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// TodoStore handles todo persistence
type TodoStore struct {
	db *DB
}

// NewTodoStore creates a new todo store
func NewTodoStore(db *DB) *TodoStore {
	return &TodoStore{db: db}
}

// Insert creates a new todo
func (s *TodoStore) Insert(ctx context.Context, todo *core.Todo) error {
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, text, done, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, todo.ID, todo.UserID, todo.Text, todo.Done, todo.CompletedAt, todo.CreatedAt)

	return err
}

// GetByID returns a todo by ID
func (s *TodoStore) GetByID(ctx context.Context, id core.TodoID) (*core.Todo, error) {
	todo := &core.Todo{}
	var completedAt sql.NullTime

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, text, done, completed_at, created_at
		FROM todos WHERE id = ?
	`, id).Scan(&todo.ID, &todo.UserID, &todo.Text, &todo.Done, &completedAt, &todo.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		todo.CompletedAt = &completedAt.Time
	}
	return todo, nil
}

// Update persists the todo's text, done flag and completion time
func (s *TodoStore) Update(ctx context.Context, todo *core.Todo) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE todos SET text = ?, done = ?, completed_at = ? WHERE id = ?
	`, todo.Text, todo.Done, todo.CompletedAt, todo.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrTodoNotFound
	}
	return nil
}

// Delete removes a todo
func (s *TodoStore) Delete(ctx context.Context, id core.TodoID) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrTodoNotFound
	}
	return nil
}

// CountByUser returns the number of todos a user has created
func (s *TodoStore) CountByUser(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM todos WHERE user_id = ?
	`, userID).Scan(&count)
	return count, err
}

// CompletedCountOnDay returns the number of todos the user completed on
// the UTC calendar day containing day
func (s *TodoStore) CompletedCountOnDay(ctx context.Context, userID core.UserID, day time.Time) (int, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM todos
		WHERE user_id = ? AND done = TRUE AND completed_at >= ? AND completed_at < ?
	`, userID, start, end).Scan(&count)
	return count, err
}

// CompletedCountSince returns the number of todos the user completed at
// or after since
func (s *TodoStore) CompletedCountSince(ctx context.Context, userID core.UserID, since time.Time) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM todos
		WHERE user_id = ? AND done = TRUE AND completed_at >= ?
	`, userID, since.UTC()).Scan(&count)
	return count, err
}
