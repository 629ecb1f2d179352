package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
	"github.com/daygrid/daygrid/internal/logging"
)

// TaskStore is the slice of task persistence the service needs
type TaskStore interface {
	GetByID(ctx context.Context, id core.TaskID) (*core.Task, error)
	Insert(ctx context.Context, task *core.Task) error
	Update(ctx context.Context, task *core.Task) error
	Delete(ctx context.Context, id core.TaskID) error
}

// NotificationStore persists the notifications a transition produces
type NotificationStore interface {
	Insert(ctx context.Context, n *core.Notification) error
}

// Broadcaster delivers events to live connections
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// Service applies ownership transitions to the store and emits their
// events. For every transition the durable write happens before any
// broadcast, so a client observing an event can always read the state
// it describes.
type Service struct {
	tasks         TaskStore
	notifications NotificationStore
	broadcaster   Broadcaster
}

// NewService creates a calendar task service
func NewService(tasks TaskStore, notifications NotificationStore, broadcaster Broadcaster) *Service {
	return &Service{
		tasks:         tasks,
		notifications: notifications,
		broadcaster:   broadcaster,
	}
}

// Create persists a new task owned by its creator and fans out
// calendar-created events to every stakeholder plus a task-added
// notification per participant.
func (s *Service) Create(ctx context.Context, task *core.Task) (*core.Task, error) {
	if task.OwnerID == "" {
		return nil, fmt.Errorf("%w: ownerId", core.ErrMissingRequired)
	}
	if task.ID == "" {
		task.ID = core.TaskID(uuid.New().String())
	}
	task.Participants = normalizeParticipants(task.OwnerID, task.Participants)
	task.CreatedAt = time.Now().UTC()

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	s.emit(ctx, Created(task), task.OwnerID, task.ID, task.Title)
	return task, nil
}

// Remove processes a removal request by requester: owner departure with
// participants promotes the first participant, owner departure alone
// deletes the record, participant departure shrinks the set, and
// non-stakeholders are declined with core.ErrNotStakeholder.
func (s *Service) Remove(ctx context.Context, taskID core.TaskID, requester core.UserID) (*Outcome, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	outcome, err := Removed(task, requester)
	if err != nil {
		return nil, err
	}

	if outcome.Deleted {
		if err := s.tasks.Delete(ctx, taskID); err != nil {
			return nil, fmt.Errorf("delete task: %w", err)
		}
	} else {
		if err := s.tasks.Update(ctx, outcome.Task); err != nil {
			return nil, fmt.Errorf("update task: %w", err)
		}
	}

	s.emit(ctx, outcome, requester, task.ID, task.Title)
	return outcome, nil
}

// emit persists the outcome's notifications and broadcasts everything.
// Called only after the task write has succeeded. A notification that
// fails to persist is dropped together with its event; the remaining
// emissions still go out.
func (s *Service) emit(ctx context.Context, outcome *Outcome, actor core.UserID, taskID core.TaskID, title string) {
	for _, note := range outcome.Notifications {
		n := &core.Notification{
			ID:        core.NotificationID(uuid.New().String()),
			UserID:    note.UserID,
			Type:      note.Type,
			ActorID:   actor,
			TaskID:    taskID,
			TaskTitle: title,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.notifications.Insert(ctx, n); err != nil {
			logging.Error("task notification for user %s lost: %v", note.UserID, err)
			continue
		}
		s.broadcaster.Broadcast(hub.EventNotification, n)
	}

	for _, ev := range outcome.Events {
		payload := map[string]any{"userId": ev.UserID, "taskId": taskID}
		if ev.Task != nil {
			payload["task"] = ev.Task
		}
		s.broadcaster.Broadcast(ev.Type, payload)
	}
}

// normalizeParticipants drops duplicates and the owner while keeping
// the requested order.
func normalizeParticipants(owner core.UserID, in []core.UserID) []core.UserID {
	out := make([]core.UserID, 0, len(in))
	seen := map[core.UserID]bool{owner: true}
	for _, id := range in {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
