package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focustimer/internal/model"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *UserRepository) CreateTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO users (id, email, username, password_hash, xp, level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.XP,
		user.Level,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, username, password_hash, xp, level, created_at, updated_at
		 FROM users
		 WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, username, password_hash, xp, level, created_at, updated_at
		 FROM users
		 WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id, username string, now time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE users SET username = ?, updated_at = ? WHERE id = ?`,
		username,
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	return requireRow(result)
}

// AddXPTx adds delta experience points and recomputes the level.
func (r *UserRepository) AddXPTx(ctx context.Context, tx *sql.Tx, id string, delta int, now time.Time) error {
	var xp int
	if err := tx.QueryRowContext(ctx, `SELECT xp FROM users WHERE id = ?`, id).Scan(&xp); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("read xp: %w", err)
	}

	xp += delta
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE users SET xp = ?, level = ?, updated_at = ? WHERE id = ?`,
		xp,
		model.LevelForXP(xp),
		formatTime(now),
		id,
	); err != nil {
		return fmt.Errorf("update xp: %w", err)
	}
	return nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.XP,
		&user.Level,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}
	user.CreatedAt = parsedCreatedAt
	user.UpdatedAt = parsedUpdatedAt
	return &user, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
