package persist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"focustimer/internal/model"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	store := NewLocalStore(t.TempDir())
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return store
}

func TestLocalStore_EmptyFile(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, tasks)

	current, err := store.CurrentTask(ctx)
	require.NoError(t, err)
	require.Nil(t, current)

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, model.DefaultSettings(), settings)
}

func TestLocalStore_TaskLifecycle(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	first, err := store.CreateTask(ctx, "  write report ")
	require.NoError(t, err)
	require.Equal(t, "write report", first.Label)
	second, err := store.CreateTask(ctx, "review")
	require.NoError(t, err)
	require.Greater(t, second.Position, first.Position)

	done := true
	updated, err := store.UpdateTask(ctx, first.ID, model.TaskPatch{Completed: &done})
	require.NoError(t, err)
	require.True(t, updated.Completed)

	tasks, err := store.ReorderTasks(ctx, []string{second.ID, first.ID})
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, []string{tasks[0].ID, tasks[1].ID})

	// A fresh store over the same directory sees the persisted order.
	reopened := NewLocalStore(filepath.Dir(store.Path()))
	tasks, err = reopened.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, second.ID, tasks[0].ID)
	require.True(t, tasks[1].Completed)

	require.NoError(t, store.DeleteTask(ctx, second.ID))
	require.ErrorIs(t, store.DeleteTask(ctx, second.ID), ErrTaskNotFound)

	_, err = store.UpdateTask(ctx, "missing", model.TaskPatch{Completed: &done})
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.ReorderTasks(ctx, []string{"missing"})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestLocalStore_ReorderRejectsDuplicateIDs(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	first, err := store.CreateTask(ctx, "first")
	require.NoError(t, err)
	second, err := store.CreateTask(ctx, "second")
	require.NoError(t, err)

	_, err = store.ReorderTasks(ctx, []string{second.ID, first.ID, second.ID})
	require.ErrorIs(t, err, ErrDuplicateIDs)

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, second.ID}, []string{tasks[0].ID, tasks[1].ID})
}

func TestLocalStore_LabelValidation(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	_, err := store.CreateTask(ctx, "   ")
	require.ErrorIs(t, err, ErrInvalidLabel)
	_, err = store.CreateTask(ctx, strings.Repeat("x", model.MaxTaskLabelLength+1))
	require.ErrorIs(t, err, ErrInvalidLabel)
	_, err = store.CreateTask(ctx, strings.Repeat("x", model.MaxTaskLabelLength))
	require.NoError(t, err)
}

func TestLocalStore_CurrentTaskFollowsTask(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "draft")
	require.NoError(t, err)
	snapshot := task.Snapshot()
	require.NoError(t, store.SetCurrentTask(ctx, &snapshot))

	label := "final draft"
	_, err = store.UpdateTask(ctx, task.ID, model.TaskPatch{Label: &label})
	require.NoError(t, err)
	current, err := store.CurrentTask(ctx)
	require.NoError(t, err)
	require.Equal(t, "final draft", current.Label)

	deleted, err := store.DeleteTasks(ctx, []string{task.ID, "unknown"})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	current, err = store.CurrentTask(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestLocalStore_SettingsNormalized(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	saved, err := store.SaveSettings(ctx, model.Settings{
		TimerConfiguration: model.TimerConfiguration{FocusMinutes: 50, ShortBreakMinutes: -3},
		AutoStartBreaks:    true,
	})
	require.NoError(t, err)
	require.Equal(t, 50, saved.FocusMinutes)
	require.Equal(t, model.DefaultShortBreakMinutes, saved.ShortBreakMinutes)
	require.Equal(t, model.DefaultLongBreakMinutes, saved.LongBreakMinutes)
	require.Equal(t, model.DefaultAlarmSound, saved.AlarmSound)

	loaded, err := store.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, saved, loaded)

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(raw), "focus_minutes: 50")
	require.Contains(t, string(raw), "auto_start_breaks: true")
}

func TestLocalStore_ClearGuestData(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, "guest task")
	require.NoError(t, err)
	snapshot := task.Snapshot()
	require.NoError(t, store.SetCurrentTask(ctx, &snapshot))
	_, err = store.SaveSettings(ctx, model.Settings{TimerConfiguration: model.TimerConfiguration{FocusMinutes: 40}})
	require.NoError(t, err)

	require.NoError(t, store.ClearGuestData())

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, tasks)
	current, err := store.CurrentTask(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, model.DefaultSettings(), settings)
}

func TestLocalStore_CorruptFile(t *testing.T) {
	store := newLocal(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("tasks: [::"), 0o644))

	_, err := store.ListTasks(context.Background())
	require.Error(t, err)
}
