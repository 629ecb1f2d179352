package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// TaskStore handles shared calendar task persistence
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a new task store
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// Insert creates a new task
func (s *TaskStore) Insert(ctx context.Context, task *core.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.Participants == nil {
		task.Participants = []core.UserID{}
	}

	participants, _ := json.Marshal(task.Participants)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, participants, title, description, calendar_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.OwnerID, string(participants), task.Title, task.Description, task.CalendarDate, task.CreatedAt)

	return err
}

// GetByID returns a task by ID
func (s *TaskStore) GetByID(ctx context.Context, id core.TaskID) (*core.Task, error) {
	task := &core.Task{}
	var participants string
	var description sql.NullString

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, owner_id, participants, title, description, calendar_date, created_at
		FROM tasks WHERE id = ?
	`, id).Scan(
		&task.ID, &task.OwnerID, &participants, &task.Title,
		&description, &task.CalendarDate, &task.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	if err := json.Unmarshal([]byte(participants), &task.Participants); err != nil {
		task.Participants = []core.UserID{}
	}

	return task, nil
}

// Update persists the task's owner and participant set
func (s *TaskStore) Update(ctx context.Context, task *core.Task) error {
	participants, _ := json.Marshal(task.Participants)

	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE tasks SET owner_id = ?, participants = ?, title = ?, description = ?, calendar_date = ?
		WHERE id = ?
	`, task.OwnerID, string(participants), task.Title, task.Description, task.CalendarDate, task.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

// Delete physically removes a task
func (s *TaskStore) Delete(ctx context.Context, id core.TaskID) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

// CountByOwner returns the number of tasks owned by a user
func (s *TaskStore) CountByOwner(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks WHERE owner_id = ?
	`, userID).Scan(&count)
	return count, err
}

// CountByOwnerOnDate returns the number of tasks a user owns on one
// calendar date (YYYY-MM-DD)
func (s *TaskStore) CountByOwnerOnDate(ctx context.Context, userID core.UserID, date string) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks WHERE owner_id = ? AND calendar_date = ?
	`, userID, date).Scan(&count)
	return count, err
}
