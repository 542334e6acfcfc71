package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focustimer/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	var taskID interface{}
	if session.TaskID != nil {
		taskID = *session.TaskID
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (
			id, user_id, task_id, type, status, duration_seconds,
			started_at, ended_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		taskID,
		string(session.Type),
		string(session.Status),
		session.DurationSeconds,
		formatTime(session.StartedAt),
		formatTime(session.EndedAt),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// TaskExistsTx reports whether the task belongs to the user.
func (r *SessionRepository) TaskExistsTx(ctx context.Context, tx *sql.Tx, userID, taskID string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM tasks WHERE user_id = ? AND id = ?`,
		userID,
		taskID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check task: %w", err)
	}
	return count > 0, nil
}

// ListSince returns the user's sessions started at or after since, newest
// first. A zero since lists everything.
func (r *SessionRepository) ListSince(ctx context.Context, userID string, since time.Time, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.id, s.user_id, s.task_id, t.label, s.type, s.status, s.duration_seconds,
		        s.started_at, s.ended_at, s.created_at
		 FROM sessions s
		 LEFT JOIN tasks t ON t.id = s.task_id
		 WHERE s.user_id = ? AND s.started_at >= ?
		 ORDER BY s.started_at DESC
		 LIMIT ?`,
		userID,
		formatTime(since),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GroupSince totals the user's sessions started at or after since by UTC
// day, type and status. Unlike ListSince it reads every matching row.
func (r *SessionRepository) GroupSince(ctx context.Context, userID string, since time.Time) ([]model.SessionGroup, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT substr(started_at, 1, 10) AS day, type, status, COUNT(1), COALESCE(SUM(duration_seconds), 0)
		 FROM sessions
		 WHERE user_id = ? AND started_at >= ?
		 GROUP BY day, type, status
		 ORDER BY day ASC, type ASC, status ASC`,
		userID,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("group sessions: %w", err)
	}
	defer rows.Close()

	groups := make([]model.SessionGroup, 0)
	for rows.Next() {
		var group model.SessionGroup
		var sessionType string
		var status string
		if err := rows.Scan(&group.Date, &sessionType, &status, &group.Count, &group.Seconds); err != nil {
			return nil, fmt.Errorf("scan session group: %w", err)
		}
		group.Type = model.Phase(sessionType)
		group.Status = model.SessionStatus(status)
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session groups: %w", err)
	}
	return groups, nil
}

func scanSession(s scanner) (*model.Session, error) {
	var session model.Session
	var taskID sql.NullString
	var taskLabel sql.NullString
	var sessionType string
	var status string
	var startedAt string
	var endedAt string
	var createdAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&taskID,
		&taskLabel,
		&sessionType,
		&status,
		&session.DurationSeconds,
		&startedAt,
		&endedAt,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.Type = model.Phase(sessionType)
	session.Status = model.SessionStatus(status)
	if taskID.Valid {
		value := taskID.String
		session.TaskID = &value
	}
	if taskLabel.Valid {
		value := taskLabel.String
		session.TaskLabel = &value
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if session.EndedAt, err = parseTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	return &session, nil
}
