package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// UserStore handles user persistence
type UserStore struct {
	db *DB
}

// NewUserStore creates a new user store
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create creates a new user
func (s *UserStore) Create(ctx context.Context, user *core.User) error {
	if user.Level == 0 {
		user.Level = 1
	}
	user.CreatedAt = time.Now().UTC()

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, level, xp, is_online, appear_online, profile_photo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.Level, user.XP, user.IsOnline, user.AppearOnline, user.ProfilePhoto, user.CreatedAt)

	return err
}

// GetByID returns a user by ID
func (s *UserStore) GetByID(ctx context.Context, id core.UserID) (*core.User, error) {
	user := &core.User{}
	var photo sql.NullString

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, username, level, xp, is_online, appear_online, profile_photo, created_at
		FROM users WHERE id = ?
	`, id).Scan(
		&user.ID, &user.Username, &user.Level, &user.XP,
		&user.IsOnline, &user.AppearOnline, &photo, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.ProfilePhoto = photo.String
	return user, nil
}

// UpdateXP persists a new xp/level pair for a user
func (s *UserStore) UpdateXP(ctx context.Context, id core.UserID, xp, level int) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE users SET xp = ?, level = ? WHERE id = ?
	`, xp, level, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// SetOnline persists the user's online flag
func (s *UserStore) SetOnline(ctx context.Context, id core.UserID, online bool) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE users SET is_online = ? WHERE id = ?
	`, online, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// SetAppearOnline persists the user's visibility preference
func (s *UserStore) SetAppearOnline(ctx context.Context, id core.UserID, appear bool) error {
	_, err := s.db.conn.ExecContext(ctx, `
		UPDATE users SET appear_online = ? WHERE id = ?
	`, appear, id)
	return err
}

// SetProfilePhoto persists the user's profile photo URL and reports
// whether this was the first photo ever set for the user.
func (s *UserStore) SetProfilePhoto(ctx context.Context, id core.UserID, url string) (bool, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	first := user.ProfilePhoto == ""

	_, err = s.db.conn.ExecContext(ctx, `
		UPDATE users SET profile_photo = ? WHERE id = ?
	`, url, id)
	if err != nil {
		return false, err
	}
	return first, nil
}
