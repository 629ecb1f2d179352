// Package core defines the fundamental types and errors for Daygrid.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Not-found errors surface as declined operations, never as a
	// process failure
	ErrUserNotFound          = errors.New("user not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrTodoNotFound          = errors.New("todo not found")
	ErrNoteNotFound          = errors.New("note not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrFriendRequestNotFound = errors.New("friend request not found")

	// Authorization errors leave the target unchanged
	ErrNotStakeholder = errors.New("requester is neither owner nor participant")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")

	// Request lifecycle errors
	ErrRequestNotPending = errors.New("friend request is not pending")
)
