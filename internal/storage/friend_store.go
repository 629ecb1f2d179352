package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/daygrid/daygrid/internal/core"
)

// FriendStore handles friend request persistence
type FriendStore struct {
	db *DB
}

// NewFriendStore creates a new friend store
func NewFriendStore(db *DB) *FriendStore {
	return &FriendStore{db: db}
}

// Insert creates a new friend request
func (s *FriendStore) Insert(ctx context.Context, req *core.FriendRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = core.FriendRequestPending
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO friend_requests (id, from_id, to_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, req.ID, req.FromID, req.ToID, req.Status, req.CreatedAt)

	return err
}

// GetByID returns a friend request by ID
func (s *FriendStore) GetByID(ctx context.Context, id core.FriendRequestID) (*core.FriendRequest, error) {
	req := &core.FriendRequest{}

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, from_id, to_id, status, created_at
		FROM friend_requests WHERE id = ?
	`, id).Scan(&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	return req, nil
}

// UpdateStatus transitions a pending request to a terminal status
func (s *FriendStore) UpdateStatus(ctx context.Context, id core.FriendRequestID, status core.FriendRequestStatus) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE friend_requests SET status = ? WHERE id = ? AND status = ?
	`, status, id, core.FriendRequestPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRequestNotPending
	}
	return nil
}
