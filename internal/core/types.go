// Package core defines the fundamental types and errors for Daygrid.
package core

import "time"

// UserID uniquely identifies a user
type UserID string

// NotificationID uniquely identifies a notification
type NotificationID string

// TaskID uniquely identifies a shared calendar task
type TaskID string

// TodoID uniquely identifies a todo item
type TodoID string

// NoteID uniquely identifies a note
type NoteID string

// FriendRequestID uniquely identifies a friend request
type FriendRequestID string

// User represents an account holder.
// Level is always XP/100 + 1 once a grant has settled.
type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	Level        int       `json:"level"`
	XP           int       `json:"xp"`
	IsOnline     bool      `json:"isOnline"`
	AppearOnline bool      `json:"appearOnline"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NotificationType represents the kind of notification
type NotificationType string

const (
	NotifyXP             NotificationType = "xp"
	NotifyLevelUp        NotificationType = "level-up"
	NotifyTaskAdded      NotificationType = "task-added"
	NotifyTaskLeft       NotificationType = "task-left"
	NotifyFriendRequest  NotificationType = "friend-request"
	NotifyFriendAccepted NotificationType = "friend-accepted"
	NotifyFriendDeclined NotificationType = "friend-declined"
)

// Notification is a persisted message addressed to a single user.
// Immutable once created except for the Read flag. For xp notifications
// Reason doubles as the daily dedupe key, so reward rules must pass a
// fixed reason string rather than an interpolated one.
type Notification struct {
	ID              NotificationID   `json:"id"`
	UserID          UserID           `json:"userId"`
	Type            NotificationType `json:"type"`
	Reason          string           `json:"reason,omitempty"`
	Amount          int              `json:"amount,omitempty"`
	Level           int              `json:"level,omitempty"`
	UnlockedTheme   string           `json:"unlockedTheme,omitempty"`
	UnlockedSticker bool             `json:"unlockedSticker,omitempty"`
	ActorID         UserID           `json:"actorId,omitempty"`
	TaskID          TaskID           `json:"taskId,omitempty"`
	TaskTitle       string           `json:"taskTitle,omitempty"`
	Read            bool             `json:"read"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Task is a shared calendar event with exactly one owner and zero or
// more participants. Participants are ordered, contain no duplicates
// and never include the owner.
type Task struct {
	ID           TaskID    `json:"id"`
	OwnerID      UserID    `json:"ownerId"`
	Participants []UserID  `json:"participants"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CalendarDate string    `json:"calendarDate"` // YYYY-MM-DD
	CreatedAt    time.Time `json:"createdAt"`
}

// Stakeholders returns the owner followed by the participants.
func (t *Task) Stakeholders() []UserID {
	out := make([]UserID, 0, len(t.Participants)+1)
	out = append(out, t.OwnerID)
	out = append(out, t.Participants...)
	return out
}

// IsStakeholder reports whether id is the owner or a participant.
func (t *Task) IsStakeholder(id UserID) bool {
	if id == t.OwnerID {
		return true
	}
	for _, p := range t.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Todo is a personal todo item
type Todo struct {
	ID          TodoID     `json:"id"`
	UserID      UserID     `json:"userId"`
	Text        string     `json:"text"`
	Done        bool       `json:"done"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Note is a personal note
type Note struct {
	ID        NoteID    `json:"id"`
	UserID    UserID    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FriendRequestStatus represents the lifecycle state of a friend request
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest links two users
type FriendRequest struct {
	ID        FriendRequestID     `json:"id"`
	FromID    UserID              `json:"fromId"`
	ToID      UserID              `json:"toId"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}
