package rewards

import (
	"context"
	"sync"
	"time"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/logging"
)

// Trigger identifies the domain action that fired reward evaluation
type Trigger string

const (
	TriggerCalendarEventCreated Trigger = "calendar-event-created"
	TriggerNoteCreated          Trigger = "note-created"
	TriggerNoteEdited           Trigger = "note-edited"
	TriggerTodoCreated          Trigger = "todo-created"
	TriggerTodoCompleted        Trigger = "todo-completed"
	TriggerFriendAccepted       Trigger = "friend-accepted"
	TriggerProfilePhotoSet      Trigger = "profile-photo-set"
)

// Action describes one occurrence of a trigger. Fields beyond UserID
// are only meaningful for the triggers that use them.
type Action struct {
	Trigger      Trigger
	UserID       core.UserID
	CalendarDate string        // calendar-event-created: YYYY-MM-DD of the event
	NoteLength   int           // note triggers: body length in characters
	NoteAge      time.Duration // note-edited: age of the note at edit time
}

// Stats exposes the persisted counts the rule conditions read
type Stats interface {
	TaskCountByOwner(ctx context.Context, userID core.UserID) (int, error)
	TaskCountByOwnerOnDate(ctx context.Context, userID core.UserID, date string) (int, error)
	NoteCountByUser(ctx context.Context, userID core.UserID) (int, error)
	TodoCountByUser(ctx context.Context, userID core.UserID) (int, error)
	TodoCompletedCountOnDay(ctx context.Context, userID core.UserID, day time.Time) (int, error)
	TodoCompletedCountSince(ctx context.Context, userID core.UserID, since time.Time) (int, error)
}

// Rule is one reward: a trigger, a fixed XP amount, a fixed reason
// string (the dedupe key) and a condition over the current stats. A nil
// condition always fires.
type Rule struct {
	Trigger    Trigger
	Amount     int
	Reason     string
	OncePerDay bool
	Condition  func(ctx context.Context, stats Stats, a Action, now time.Time) (bool, error)
}

// defaultRules is the full reward table. New rewards are rows here, not
// new code paths.
func defaultRules() []Rule {
	return []Rule{
		{
			Trigger: TriggerCalendarEventCreated,
			Amount:  5, Reason: "first calendar event",
			Condition: func(ctx context.Context, stats Stats, a Action, _ time.Time) (bool, error) {
				count, err := stats.TaskCountByOwner(ctx, a.UserID)
				return count == 1, err
			},
		},
		{
			Trigger: TriggerCalendarEventCreated,
			Amount:  15, Reason: "20+ calendar events", OncePerDay: true,
			Condition: func(ctx context.Context, stats Stats, a Action, _ time.Time) (bool, error) {
				count, err := stats.TaskCountByOwner(ctx, a.UserID)
				return count > 0 && count%20 == 0, err
			},
		},
		{
			Trigger: TriggerCalendarEventCreated,
			Amount:  10, Reason: "10+ events one day", OncePerDay: true,
			Condition: func(ctx context.Context, stats Stats, a Action, _ time.Time) (bool, error) {
				count, err := stats.TaskCountByOwnerOnDate(ctx, a.UserID, a.CalendarDate)
				return count >= 10, err
			},
		},
		{
			Trigger: TriggerNoteCreated,
			Amount:  5, Reason: "first note",
			Condition: func(ctx context.Context, stats Stats, a Action, _ time.Time) (bool, error) {
				count, err := stats.NoteCountByUser(ctx, a.UserID)
				return count == 1, err
			},
		},
		{
			Trigger: TriggerNoteCreated,
			Amount:  15, Reason: "10+ notes", OncePerDay: true,
			Condition: func(ctx context.Context, stats Stats, a Action, _ time.Time) (bool, error) {
				count, err := stats.NoteCountByUser(ctx, a.UserID)
				return count > 0 && count%10 == 0, err
			},
		},
		{
			Trigger: TriggerNoteCreated,
			Amount:  10, Reason: "long note", OncePerDay: true,
			Condition: func(_ context.Context, _ Stats, a Action, _ time.Time) (bool, error) {
				return a.NoteLength > 2000, nil
			},
		},
		{
			Trigger: TriggerNoteEdited,
			Amount:  10, Reason: "long note", OncePerDay: true,
			Condition: func(_ context.Context, _ Stats, a Action, _ time.Time) (bool, error) {
				return a.NoteLength > 2000, nil
			},
		},
		{
			Trigger: TriggerNoteEdited,
			Amount:  5, Reason: "revise old work", OncePerDay: true,
			Condition: func(_ context.Context, _ Stats, a Action, _ time.Time) (bool, error) {
				return a.NoteAge > 5*24*time.Hour, nil
			},
		},
		{
			Trigger: TriggerTodoCreated,
			Amount:  5, Reason: "first task",
			Condition: func(ctx context.Context, stats Stats, a Action, _ time.Time) (bool, error) {
				count, err := stats.TodoCountByUser(ctx, a.UserID)
				return count == 1, err
			},
		},
		{
			Trigger: TriggerTodoCompleted,
			Amount:  10, Reason: "10+ tasks today", OncePerDay: true,
			Condition: func(ctx context.Context, stats Stats, a Action, now time.Time) (bool, error) {
				count, err := stats.TodoCompletedCountOnDay(ctx, a.UserID, now)
				return count > 0 && count%10 == 0, err
			},
		},
		{
			Trigger: TriggerTodoCompleted,
			Amount:  20, Reason: "150+ tasks this week", OncePerDay: true,
			Condition: func(ctx context.Context, stats Stats, a Action, now time.Time) (bool, error) {
				count, err := stats.TodoCompletedCountSince(ctx, a.UserID, now.Add(-7*24*time.Hour))
				return count >= 150, err
			},
		},
		{
			Trigger: TriggerTodoCompleted,
			Amount:  25, Reason: "7-day streak", OncePerDay: true,
			Condition: func(ctx context.Context, stats Stats, a Action, now time.Time) (bool, error) {
				// Walk backward from today; abort at the first day
				// with fewer than 7 completions.
				for i := 0; i < 7; i++ {
					count, err := stats.TodoCompletedCountOnDay(ctx, a.UserID, now.AddDate(0, 0, -i))
					if err != nil {
						return false, err
					}
					if count < 7 {
						return false, nil
					}
				}
				return true, nil
			},
		},
		{
			// Granted to both parties; the accept handler evaluates the
			// trigger once per party. No daily cap.
			Trigger: TriggerFriendAccepted,
			Amount:  10, Reason: "new friend",
		},
		{
			// The photo handler fires this trigger only when the photo
			// was previously unset.
			Trigger: TriggerProfilePhotoSet,
			Amount:  5, Reason: "first profile photo",
		},
	}
}

// Engine evaluates the reward table against domain actions. Evaluation
// is serialized per user id so two rapid actions for the same user
// cannot both observe a pre-grant count; duplicates under true
// cross-process concurrency remain possible and are tolerated.
type Engine struct {
	ledger *Ledger
	stats  Stats
	rules  []Rule

	now func() time.Time

	mu    sync.Mutex
	locks map[core.UserID]*sync.Mutex
}

// NewEngine creates a reward engine over the default rule table
func NewEngine(ledger *Ledger, stats Stats) *Engine {
	return &Engine{
		ledger: ledger,
		stats:  stats,
		rules:  defaultRules(),
		now:    time.Now,
		locks:  make(map[core.UserID]*sync.Mutex),
	}
}

func (e *Engine) lockUser(id core.UserID) func() {
	e.mu.Lock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Evaluate runs every rule matching the action's trigger, applying the
// once-per-day dedupe before the condition. A grant that fails is
// logged and lost; rewards are at-most-once, never retried.
func (e *Engine) Evaluate(ctx context.Context, a Action) {
	if a.UserID == "" {
		return
	}

	unlock := e.lockUser(a.UserID)
	defer unlock()

	for _, rule := range e.rules {
		if rule.Trigger != a.Trigger {
			continue
		}
		if rule.OncePerDay && e.ledger.HasBeenGrantedToday(ctx, a.UserID, rule.Reason) {
			continue
		}
		if rule.Condition != nil {
			ok, err := rule.Condition(ctx, e.stats, a, e.now())
			if err != nil {
				logging.Warn("reward %q skipped for user %s: %v", rule.Reason, a.UserID, err)
				continue
			}
			if !ok {
				continue
			}
		}
		if _, err := e.ledger.Grant(ctx, a.UserID, rule.Amount, rule.Reason); err != nil {
			logging.Error("reward %q failed for user %s: %v", rule.Reason, a.UserID, err)
		}
	}
}
