package rewards

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/core"
	"github.com/daygrid/daygrid/internal/storage"
)

type engineFixture struct {
	engine        *Engine
	users         *storage.UserStore
	notifications *storage.NotificationStore
	tasks         *storage.TaskStore
	todos         *storage.TodoStore
	notes         *storage.NoteStore
}

func createTestEngine(t *testing.T) *engineFixture {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	f := &engineFixture{
		users:         storage.NewUserStore(db),
		notifications: storage.NewNotificationStore(db),
		tasks:         storage.NewTaskStore(db),
		todos:         storage.NewTodoStore(db),
		notes:         storage.NewNoteStore(db),
	}

	ledger := NewLedger(f.users, f.notifications, &recordingBroadcaster{})
	f.engine = NewEngine(ledger, storage.NewStats(f.tasks, f.todos, f.notes))

	require.NoError(t, f.users.Create(context.Background(), &core.User{
		ID: "alice", Username: "alice", Level: 1,
	}))

	return f
}

// xpReasons returns the reasons of alice's xp notifications, oldest last
func (f *engineFixture) xpReasons(t *testing.T) []string {
	t.Helper()
	stored, err := f.notifications.ListByUser(context.Background(), "alice", 100)
	require.NoError(t, err)

	var reasons []string
	for _, n := range stored {
		if n.Type == core.NotifyXP {
			reasons = append(reasons, n.Reason)
		}
	}
	return reasons
}

func (f *engineFixture) addTodo(t *testing.T, done bool, completedAt time.Time) {
	t.Helper()
	todo := &core.Todo{
		ID:     core.TodoID(uuid.New().String()),
		UserID: "alice",
		Text:   "t",
		Done:   done,
	}
	if done {
		todo.CompletedAt = &completedAt
	}
	require.NoError(t, f.todos.Insert(context.Background(), todo))
}

func (f *engineFixture) addNote(t *testing.T) {
	t.Helper()
	require.NoError(t, f.notes.Insert(context.Background(), &core.Note{
		ID:     core.NoteID(uuid.New().String()),
		UserID: "alice",
		Title:  "n",
		Body:   "body",
	}))
}

func (f *engineFixture) addTask(t *testing.T, date string) {
	t.Helper()
	require.NoError(t, f.tasks.Insert(context.Background(), &core.Task{
		ID:           core.TaskID(uuid.New().String()),
		OwnerID:      "alice",
		Title:        "task",
		CalendarDate: date,
	}))
}

func TestEngine_FirstTodoGrantsOnce(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	f.addTodo(t, false, time.Time{})
	f.engine.Evaluate(ctx, Action{Trigger: TriggerTodoCreated, UserID: "alice"})

	assert.Equal(t, []string{"first task"}, f.xpReasons(t))

	// Second todo: count is 2, condition no longer holds
	f.addTodo(t, false, time.Time{})
	f.engine.Evaluate(ctx, Action{Trigger: TriggerTodoCreated, UserID: "alice"})

	assert.Equal(t, []string{"first task"}, f.xpReasons(t))
}

func TestEngine_FirstCalendarEventGrant(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	f.addTask(t, "2026-08-31")
	f.engine.Evaluate(ctx, Action{
		Trigger:      TriggerCalendarEventCreated,
		UserID:       "alice",
		CalendarDate: "2026-08-31",
	})

	assert.Equal(t, []string{"first calendar event"}, f.xpReasons(t))
}

func TestEngine_TwentyCalendarEventsOncePerDay(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		f.addTask(t, fmt.Sprintf("2026-08-%02d", i%28+1))
	}

	action := Action{
		Trigger:      TriggerCalendarEventCreated,
		UserID:       "alice",
		CalendarDate: "2026-08-01",
	}
	f.engine.Evaluate(ctx, action)
	f.engine.Evaluate(ctx, action)

	var grants int
	for _, r := range f.xpReasons(t) {
		if r == "20+ calendar events" {
			grants++
		}
	}
	assert.Equal(t, 1, grants, "daily cap holds on re-evaluation")
}

func TestEngine_TenEventsOneDay(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		f.addTask(t, "2026-08-31")
	}

	f.engine.Evaluate(ctx, Action{
		Trigger:      TriggerCalendarEventCreated,
		UserID:       "alice",
		CalendarDate: "2026-08-31",
	})

	assert.Contains(t, f.xpReasons(t), "10+ events one day")
}

func TestEngine_TenNotesIdempotentPerDay(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		f.addNote(t)
	}

	f.engine.Evaluate(ctx, Action{Trigger: TriggerNoteCreated, UserID: "alice", NoteLength: 4})
	f.engine.Evaluate(ctx, Action{Trigger: TriggerNoteCreated, UserID: "alice", NoteLength: 4})

	var grants int
	for _, r := range f.xpReasons(t) {
		if r == "10+ notes" {
			grants++
		}
	}
	assert.Equal(t, 1, grants)
}

func TestEngine_LongNoteOnCreateAndEdit(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()
	f.addNote(t)

	// Short note earns nothing beyond first-note
	f.engine.Evaluate(ctx, Action{Trigger: TriggerNoteCreated, UserID: "alice", NoteLength: 100})
	assert.NotContains(t, f.xpReasons(t), "long note")

	// Long edit fires the same reason, then the daily cap holds
	f.engine.Evaluate(ctx, Action{Trigger: TriggerNoteEdited, UserID: "alice", NoteLength: 2001})
	f.engine.Evaluate(ctx, Action{Trigger: TriggerNoteEdited, UserID: "alice", NoteLength: 2001})

	var grants int
	for _, r := range f.xpReasons(t) {
		if r == "long note" {
			grants++
		}
	}
	assert.Equal(t, 1, grants)
}

func TestEngine_ReviseOldWork(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	f.engine.Evaluate(ctx, Action{
		Trigger:    TriggerNoteEdited,
		UserID:     "alice",
		NoteLength: 10,
		NoteAge:    4 * 24 * time.Hour,
	})
	assert.Empty(t, f.xpReasons(t), "four days is not old enough")

	f.engine.Evaluate(ctx, Action{
		Trigger:    TriggerNoteEdited,
		UserID:     "alice",
		NoteLength: 10,
		NoteAge:    6 * 24 * time.Hour,
	})
	assert.Equal(t, []string{"revise old work"}, f.xpReasons(t))
}

func TestEngine_SevenDayStreak(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return now }

	// Six full days only
	for day := 0; day < 6; day++ {
		for i := 0; i < 7; i++ {
			f.addTodo(t, true, now.AddDate(0, 0, -day))
		}
	}
	f.engine.Evaluate(ctx, Action{Trigger: TriggerTodoCompleted, UserID: "alice"})
	assert.NotContains(t, f.xpReasons(t), "7-day streak")

	// Seventh day completes the streak
	for i := 0; i < 7; i++ {
		f.addTodo(t, true, now.AddDate(0, 0, -6))
	}
	f.engine.Evaluate(ctx, Action{Trigger: TriggerTodoCompleted, UserID: "alice"})
	assert.Contains(t, f.xpReasons(t), "7-day streak")
}

func TestEngine_TenCompletionsToday(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		f.addTodo(t, true, now)
	}
	f.engine.Evaluate(ctx, Action{Trigger: TriggerTodoCompleted, UserID: "alice"})

	assert.Contains(t, f.xpReasons(t), "10+ tasks today")
}

func TestEngine_NewFriendIsUncapped(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	f.engine.Evaluate(ctx, Action{Trigger: TriggerFriendAccepted, UserID: "alice"})
	f.engine.Evaluate(ctx, Action{Trigger: TriggerFriendAccepted, UserID: "alice"})

	assert.Equal(t, []string{"new friend", "new friend"}, f.xpReasons(t))
}

func TestEngine_EmptyUserIDIsNoop(t *testing.T) {
	f := createTestEngine(t)

	f.engine.Evaluate(context.Background(), Action{Trigger: TriggerFriendAccepted, UserID: ""})

	assert.Empty(t, f.xpReasons(t))
}

func TestEngine_ConcurrentEvaluationsSerializedPerUser(t *testing.T) {
	f := createTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		f.addNote(t)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.engine.Evaluate(ctx, Action{Trigger: TriggerNoteCreated, UserID: "alice", NoteLength: 4})
		}()
	}
	wg.Wait()

	var grants int
	for _, r := range f.xpReasons(t) {
		if r == "10+ notes" {
			grants++
		}
	}
	assert.Equal(t, 1, grants, "rapid duplicate actions must not double-grant")
}
