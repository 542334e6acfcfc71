package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/model"
	"focustimer/internal/repository"
	"focustimer/internal/validation"
)

type TaskService struct {
	repo *repository.TaskRepository
}

var labelRules = fmt.Sprintf("required,max=%d", model.MaxTaskLabelLength)

func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, userID, label string) (*model.Task, *apperrors.APIError) {
	label, apiErr := validateLabel(label)
	if apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, *apperrors.APIError) {
	task, err := s.repo.Get(ctx, userID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task")
	}

	if patch.Label != nil {
		label, apiErr := validateLabel(*patch.Label)
		if apiErr != nil {
			return nil, apiErr
		}
		task.Label = label
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("task_not_found", "task not found")
		}
		return nil, apperrors.Internal("failed to update task")
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	deleted, err := s.repo.Delete(ctx, userID, []string{id})
	if err != nil {
		return apperrors.Internal("failed to delete task")
	}
	if deleted == 0 {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	return nil
}

func (s *TaskService) BulkDelete(ctx context.Context, userID string, ids []string) (int, *apperrors.APIError) {
	if fields := validation.Var("ids", ids, "required,min=1"); fields != nil {
		return 0, apperrors.Validation(fields)
	}
	deleted, err := s.repo.Delete(ctx, userID, ids)
	if err != nil {
		return 0, apperrors.Internal("failed to delete tasks")
	}
	return deleted, nil
}

func (s *TaskService) Reorder(ctx context.Context, userID string, ids []string) ([]model.Task, *apperrors.APIError) {
	if fields := validation.Var("ids", ids, "unique"); fields != nil {
		return nil, apperrors.Validation(fields)
	}

	err := s.repo.Reorder(ctx, userID, ids, time.Now().UTC())
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to reorder tasks")
	}
	return s.List(ctx, userID)
}

func validateLabel(label string) (string, *apperrors.APIError) {
	label = strings.TrimSpace(label)
	if fields := validation.Var("label", label, labelRules); fields != nil {
		return "", apperrors.Validation(fields)
	}
	return label, nil
}
