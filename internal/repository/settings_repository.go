package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focustimer/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.Settings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT focus_minutes, short_break_minutes, long_break_minutes,
		        auto_start_breaks, auto_start_focus, alarm_sound
		 FROM user_settings
		 WHERE user_id = ?`,
		userID,
	)

	var settings model.Settings
	err := row.Scan(
		&settings.FocusMinutes,
		&settings.ShortBreakMinutes,
		&settings.LongBreakMinutes,
		&settings.AutoStartBreaks,
		&settings.AutoStartFocus,
		&settings.AlarmSound,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, userID string, settings model.Settings, now time.Time) error {
	return upsertSettings(ctx, r.db, userID, settings, now)
}

func (r *SettingsRepository) UpsertTx(ctx context.Context, tx *sql.Tx, userID string, settings model.Settings, now time.Time) error {
	return upsertSettings(ctx, tx, userID, settings, now)
}

type execContext interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertSettings(ctx context.Context, db execContext, userID string, settings model.Settings, now time.Time) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO user_settings (
			user_id, focus_minutes, short_break_minutes, long_break_minutes,
			auto_start_breaks, auto_start_focus, alarm_sound, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			focus_minutes = excluded.focus_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			auto_start_breaks = excluded.auto_start_breaks,
			auto_start_focus = excluded.auto_start_focus,
			alarm_sound = excluded.alarm_sound,
			updated_at = excluded.updated_at`,
		userID,
		settings.FocusMinutes,
		settings.ShortBreakMinutes,
		settings.LongBreakMinutes,
		settings.AutoStartBreaks,
		settings.AutoStartFocus,
		settings.AlarmSound,
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
