package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"focustimer/internal/client"
	"focustimer/internal/db"
	apperrors "focustimer/internal/errors"
	"focustimer/internal/handler"
	"focustimer/internal/model"
	"focustimer/internal/repository"
	"focustimer/internal/router"
	"focustimer/internal/service"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	_, err = db.RunMigrations(database, filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := repository.NewUserRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	authService := service.NewAuthService(userRepo, settingsRepo, "client-secret", time.Hour, logger)
	engine := router.New(authService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Tasks:    handler.NewTaskHandler(service.NewTaskService(repository.NewTaskRepository(database))),
		Sessions: handler.NewSessionHandler(service.NewSessionService(repository.NewSessionRepository(database), userRepo, 100, logger)),
		Settings: handler.NewSettingsHandler(service.NewSettingsService(settingsRepo)),
	}, nil)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func loggedIn(t *testing.T, server *httptest.Server) *client.Client {
	t.Helper()
	anon := client.New(server.URL + "/")
	result, err := anon.Register(context.Background(), "client@example.com", "client", "123456")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "client", result.User.Username)

	token := result.Token
	return client.New(server.URL, client.WithToken(func() string { return token }))
}

func TestClient_TasksRoundTrip(t *testing.T) {
	server := newServer(t)
	api := loggedIn(t, server)
	ctx := context.Background()

	first, err := api.CreateTask(ctx, "write tests")
	require.NoError(t, err)
	second, err := api.CreateTask(ctx, "ship it")
	require.NoError(t, err)

	done := true
	updated, err := api.UpdateTask(ctx, first.ID, model.TaskPatch{Completed: &done})
	require.NoError(t, err)
	require.True(t, updated.Completed)

	tasks, err := api.ReorderTasks(ctx, []string{second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, second.ID, tasks[0].ID)

	require.NoError(t, api.DeleteTask(ctx, second.ID))
	deleted, err := api.BulkDeleteTasks(ctx, []string{first.ID, "missing"})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	tasks, err = api.ListTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestClient_SessionsAndStats(t *testing.T) {
	server := newServer(t)
	api := loggedIn(t, server)
	ctx := context.Background()

	startedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, api.CreateSession(ctx, model.SessionRecord{
		Type:            model.PhaseFocus,
		Status:          model.SessionCompleted,
		DurationSeconds: 1500,
		StartedAt:       startedAt,
		EndedAt:         startedAt.Add(25 * time.Minute),
	}))

	sessions, err := api.ListSessions(ctx, "week")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, model.PhaseFocus, sessions[0].Type)
	require.True(t, sessions[0].StartedAt.Equal(startedAt))

	stats, err := api.Stats(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "day", stats.Period)
	require.Equal(t, 1500, stats.FocusSeconds)

	profile, err := api.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, 250, profile.XP)
}

func TestClient_SettingsValidationError(t *testing.T) {
	server := newServer(t)
	api := loggedIn(t, server)
	ctx := context.Background()

	settings, err := api.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, model.DefaultSettings(), *settings)

	settings.FocusMinutes = -1
	_, err = api.SaveSettings(ctx, *settings)
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "validation_failed", apiErr.Code)
}

func TestClient_UnauthorizedHook(t *testing.T) {
	server := newServer(t)
	var calls atomic.Int32
	api := client.New(server.URL,
		client.WithToken(func() string { return "expired" }),
		client.WithUnauthorizedHook(func() { calls.Add(1) }),
	)

	_, err := api.ListTasks(context.Background())
	require.True(t, apperrors.IsStatus(err, http.StatusUnauthorized))
	require.Equal(t, int32(1), calls.Load())

	// Failed logins carry no token and must not trigger the hook.
	anon := client.New(server.URL, client.WithUnauthorizedHook(func() { calls.Add(1) }))
	_, err = anon.Login(context.Background(), "nobody@example.com", "123456")
	require.True(t, apperrors.IsStatus(err, http.StatusUnauthorized))
	require.Equal(t, int32(1), calls.Load())
}
