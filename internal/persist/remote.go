package persist

import (
	"context"
	"net/http"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/model"
)

// RemoteAPI is the subset of the HTTP client used by RemoteStore.
type RemoteAPI interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, label string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	BulkDeleteTasks(ctx context.Context, ids []string) (int, error)
	ReorderTasks(ctx context.Context, ids []string) ([]model.Task, error)
	GetSettings(ctx context.Context) (*model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) (*model.Settings, error)
}

// RemoteStore persists through the remote service. The current task
// pointer lives in the local file for signed-in users too.
type RemoteStore struct {
	api     RemoteAPI
	pointer *LocalStore
}

func NewRemoteStore(api RemoteAPI, pointer *LocalStore) *RemoteStore {
	return &RemoteStore{api: api, pointer: pointer}
}

func (s *RemoteStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.api.ListTasks(ctx)
}

func (s *RemoteStore) CreateTask(ctx context.Context, label string) (*model.Task, error) {
	return s.api.CreateTask(ctx, label)
}

func (s *RemoteStore) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, remoteErr(err)
	}

	current, err := s.pointer.CurrentTask(ctx)
	if err == nil && current != nil && current.ID == id {
		snapshot := task.Snapshot()
		if err := s.pointer.SetCurrentTask(ctx, &snapshot); err != nil {
			return task, err
		}
	}
	return task, nil
}

func (s *RemoteStore) DeleteTask(ctx context.Context, id string) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return remoteErr(err)
	}
	return s.dropPointer(ctx, id)
}

func (s *RemoteStore) DeleteTasks(ctx context.Context, ids []string) (int, error) {
	deleted, err := s.api.BulkDeleteTasks(ctx, ids)
	if err != nil {
		return 0, err
	}
	return deleted, s.dropPointer(ctx, ids...)
}

func (s *RemoteStore) ReorderTasks(ctx context.Context, ids []string) ([]model.Task, error) {
	tasks, err := s.api.ReorderTasks(ctx, ids)
	if err != nil {
		return nil, remoteErr(err)
	}
	return tasks, nil
}

func (s *RemoteStore) CurrentTask(ctx context.Context) (*model.TaskSnapshot, error) {
	return s.pointer.CurrentTask(ctx)
}

func (s *RemoteStore) SetCurrentTask(ctx context.Context, task *model.TaskSnapshot) error {
	return s.pointer.SetCurrentTask(ctx, task)
}

func (s *RemoteStore) Settings(ctx context.Context) (model.Settings, error) {
	settings, err := s.api.GetSettings(ctx)
	if err != nil {
		return model.DefaultSettings(), err
	}
	return settings.Normalize(), nil
}

func (s *RemoteStore) SaveSettings(ctx context.Context, settings model.Settings) (model.Settings, error) {
	saved, err := s.api.SaveSettings(ctx, settings.Normalize())
	if err != nil {
		return settings, err
	}
	return *saved, nil
}

func (s *RemoteStore) dropPointer(ctx context.Context, ids ...string) error {
	current, err := s.pointer.CurrentTask(ctx)
	if err != nil || current == nil {
		return err
	}
	for _, id := range ids {
		if current.ID == id {
			return s.pointer.SetCurrentTask(ctx, nil)
		}
	}
	return nil
}

func remoteErr(err error) error {
	if apperrors.IsStatus(err, http.StatusNotFound) {
		return ErrTaskNotFound
	}
	return err
}
