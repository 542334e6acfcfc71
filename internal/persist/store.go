// Package persist stores tasks, the current task pointer and settings either
// locally for guests or through the remote service for signed-in users.
package persist

import (
	"context"
	"errors"

	"focustimer/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidLabel = errors.New("label must be 1 to 255 characters")
	ErrDuplicateIDs = errors.New("ids must be unique")
)

// Store is the persistence surface used by the timer and the CLI.
type Store interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, label string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	DeleteTasks(ctx context.Context, ids []string) (int, error)
	ReorderTasks(ctx context.Context, ids []string) ([]model.Task, error)

	CurrentTask(ctx context.Context) (*model.TaskSnapshot, error)
	SetCurrentTask(ctx context.Context, task *model.TaskSnapshot) error

	Settings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) (model.Settings, error)
}
