package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// NoteStore handles note persistence
type NoteStore struct {
	db *DB
}

// NewNoteStore creates a new note store
func NewNoteStore(db *DB) *NoteStore {
	return &NoteStore{db: db}
}

// Insert creates a new note
func (s *NoteStore) Insert(ctx context.Context, note *core.Note) error {
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = note.CreatedAt

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, note.ID, note.UserID, note.Title, note.Body, note.CreatedAt, note.UpdatedAt)

	return err
}

// GetByID returns a note by ID
func (s *NoteStore) GetByID(ctx context.Context, id core.NoteID) (*core.Note, error) {
	note := &core.Note{}

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, title, body, created_at, updated_at
		FROM notes WHERE id = ?
	`, id).Scan(&note.ID, &note.UserID, &note.Title, &note.Body, &note.CreatedAt, &note.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}

	return note, nil
}

// Update persists the note's title and body
func (s *NoteStore) Update(ctx context.Context, note *core.Note) error {
	note.UpdatedAt = time.Now().UTC()

	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE notes SET title = ?, body = ?, updated_at = ? WHERE id = ?
	`, note.Title, note.Body, note.UpdatedAt, note.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNoteNotFound
	}
	return nil
}

// CountByUser returns the number of notes a user has
func (s *NoteStore) CountByUser(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notes WHERE user_id = ?
	`, userID).Scan(&count)
	return count, err
}
