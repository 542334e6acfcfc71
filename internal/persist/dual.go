package persist

import (
	"context"

	"focustimer/internal/model"
	"focustimer/internal/timer"
)

// DualStore routes every call to the remote store while authenticated and
// to the local store otherwise.
type DualStore struct {
	auth   timer.Authenticator
	local  Store
	remote Store
}

func NewDualStore(auth timer.Authenticator, local, remote Store) *DualStore {
	return &DualStore{auth: auth, local: local, remote: remote}
}

func (s *DualStore) active() Store {
	if s.remote != nil && s.auth != nil && s.auth.Authenticated() {
		return s.remote
	}
	return s.local
}

func (s *DualStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.active().ListTasks(ctx)
}

func (s *DualStore) CreateTask(ctx context.Context, label string) (*model.Task, error) {
	return s.active().CreateTask(ctx, label)
}

func (s *DualStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	return s.active().UpdateTask(ctx, id, patch)
}

func (s *DualStore) DeleteTask(ctx context.Context, id string) error {
	return s.active().DeleteTask(ctx, id)
}

func (s *DualStore) DeleteTasks(ctx context.Context, ids []string) (int, error) {
	return s.active().DeleteTasks(ctx, ids)
}

func (s *DualStore) ReorderTasks(ctx context.Context, ids []string) ([]model.Task, error) {
	return s.active().ReorderTasks(ctx, ids)
}

func (s *DualStore) CurrentTask(ctx context.Context) (*model.TaskSnapshot, error) {
	return s.active().CurrentTask(ctx)
}

func (s *DualStore) SetCurrentTask(ctx context.Context, task *model.TaskSnapshot) error {
	return s.active().SetCurrentTask(ctx, task)
}

func (s *DualStore) Settings(ctx context.Context) (model.Settings, error) {
	return s.active().Settings(ctx)
}

func (s *DualStore) SaveSettings(ctx context.Context, settings model.Settings) (model.Settings, error) {
	return s.active().SaveSettings(ctx, settings)
}

var (
	_ Store             = (*LocalStore)(nil)
	_ Store             = (*RemoteStore)(nil)
	_ Store             = (*DualStore)(nil)
	_ timer.TaskPointer = (*DualStore)(nil)
)
