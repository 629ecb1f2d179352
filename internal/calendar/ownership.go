// Package calendar implements shared calendar tasks and the
// single-owner ownership-transfer state machine that governs them.
//
// Transitions are computed by pure functions returning the new task
// state plus the events and notifications to emit, so the machine is
// testable without a store or a live transport. The service applies the
// durable write and only then emits.
package calendar

import (
	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/hub"
)

// TransitionKind tags the outcome of a removal request
type TransitionKind string

const (
	TransitionCreate                    TransitionKind = "create"
	TransitionOwnerLeavesWithPromotions TransitionKind = "owner-leaves-promote"
	TransitionOwnerLeavesAlone          TransitionKind = "owner-leaves-alone"
	TransitionParticipantLeaves         TransitionKind = "participant-leaves"
	TransitionUnauthorized              TransitionKind = "unauthorized"
)

// EventOut is a fan-out event derived from a transition. UserID is the
// addressed recipient carried inside the payload; the hub still
// delivers to every connection.
type EventOut struct {
	Type   string
	UserID core.UserID
	Task   *core.Task // state after the transition; nil for plain deletes
}

// NoteOut is a notification record derived from a transition
type NoteOut struct {
	UserID core.UserID
	Type   core.NotificationType
}

// Outcome is the full result of a transition: the state the task ends
// in, and everything to emit once that state is durable.
type Outcome struct {
	Kind          TransitionKind
	Task          *core.Task // nil when the task record is removed
	Deleted       bool
	Events        []EventOut
	Notifications []NoteOut
}

// Classify returns the transition a removal request by requester maps to
func Classify(task *core.Task, requester core.UserID) TransitionKind {
	switch {
	case requester == task.OwnerID && len(task.Participants) > 0:
		return TransitionOwnerLeavesWithPromotions
	case requester == task.OwnerID:
		return TransitionOwnerLeavesAlone
	case task.IsStakeholder(requester):
		return TransitionParticipantLeaves
	default:
		return TransitionUnauthorized
	}
}

// Created computes the fan-out for a freshly created task: a
// calendar-created event for every stakeholder plus a task-added
// notification for each participant.
func Created(task *core.Task) *Outcome {
	out := &Outcome{Kind: TransitionCreate, Task: task}

	for _, id := range task.Stakeholders() {
		out.Events = append(out.Events, EventOut{Type: hub.EventCalendarCreated, UserID: id, Task: task})
	}
	for _, p := range task.Participants {
		out.Notifications = append(out.Notifications, NoteOut{UserID: p, Type: core.NotifyTaskAdded})
	}

	return out
}

// Removed computes the transition for requester leaving/deleting the
// task. The input task is not mutated; Outcome.Task is a fresh value.
// Returns core.ErrNotStakeholder when the requester holds no stake, in
// which case the task is unchanged and nothing is emitted.
func Removed(task *core.Task, requester core.UserID) (*Outcome, error) {
	switch Classify(task, requester) {
	case TransitionOwnerLeavesAlone:
		return &Outcome{
			Kind:    TransitionOwnerLeavesAlone,
			Deleted: true,
			Events: []EventOut{
				{Type: hub.EventCalendarDeleted, UserID: requester, Task: nil},
			},
		}, nil

	case TransitionOwnerLeavesWithPromotions:
		// The first participant, by stored order, becomes the owner.
		next := &core.Task{
			ID:           task.ID,
			OwnerID:      task.Participants[0],
			Participants: append([]core.UserID{}, task.Participants[1:]...),
			Title:        task.Title,
			Description:  task.Description,
			CalendarDate: task.CalendarDate,
			CreatedAt:    task.CreatedAt,
		}
		return leavingOutcome(TransitionOwnerLeavesWithPromotions, next, requester), nil

	case TransitionParticipantLeaves:
		next := &core.Task{
			ID:           task.ID,
			OwnerID:      task.OwnerID,
			Participants: without(task.Participants, requester),
			Title:        task.Title,
			Description:  task.Description,
			CalendarDate: task.CalendarDate,
			CreatedAt:    task.CreatedAt,
		}
		return leavingOutcome(TransitionParticipantLeaves, next, requester), nil

	default:
		return nil, core.ErrNotStakeholder
	}
}

// leavingOutcome builds the shared emission set for a departure that
// keeps the task alive: calendar-deleted to the leaver, then
// calendar-created plus a task-left notification for every remaining
// stakeholder, all reflecting the post-transition state.
func leavingOutcome(kind TransitionKind, next *core.Task, leaver core.UserID) *Outcome {
	out := &Outcome{Kind: kind, Task: next}

	out.Events = append(out.Events, EventOut{Type: hub.EventCalendarDeleted, UserID: leaver})
	for _, id := range next.Stakeholders() {
		out.Events = append(out.Events, EventOut{Type: hub.EventCalendarCreated, UserID: id, Task: next})
		out.Notifications = append(out.Notifications, NoteOut{UserID: id, Type: core.NotifyTaskLeft})
	}

	return out
}

func without(ids []core.UserID, drop core.UserID) []core.UserID {
	out := make([]core.UserID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
