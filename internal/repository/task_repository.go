package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"focustimer/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create appends the task at the end of the user's list.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxPosition sql.NullInt64
	if err := tx.QueryRowContext(
		ctx,
		`SELECT MAX(position) FROM tasks WHERE user_id = ?`,
		task.UserID,
	).Scan(&maxPosition); err != nil {
		return fmt.Errorf("read max position: %w", err)
	}
	task.Position = 0
	if maxPosition.Valid {
		task.Position = int(maxPosition.Int64) + 1
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO tasks (id, user_id, label, completed, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Label,
		task.Completed,
		task.Position,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, label, completed, position, created_at, updated_at
		 FROM tasks
		 WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, label, completed, position, created_at, updated_at
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY position ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks
		 SET label = ?,
		     completed = ?,
		     updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		task.Label,
		task.Completed,
		formatTime(task.UpdatedAt),
		task.UserID,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(result)
}

// Delete removes the listed tasks and reports how many existed.
func (r *TaskRepository) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM tasks WHERE user_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

// Reorder assigns positions following ids. Every id must belong to the user.
func (r *TaskRepository) Reorder(ctx context.Context, userID string, ids []string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updatedAt := formatTime(now)
	for position, id := range ids {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE tasks SET position = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
			position,
			updatedAt,
			userID,
			id,
		)
		if err != nil {
			return fmt.Errorf("reorder task %s: %w", id, err)
		}
		if err := requireRow(result); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

func scanTask(s scanner) (*model.Task, error) {
	var task model.Task
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Label,
		&task.Completed,
		&task.Position,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	task.CreatedAt = parsedCreatedAt
	task.UpdatedAt = parsedUpdatedAt
	return &task, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
