package service

import (
	"context"
	"strings"
	"time"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/model"
	"focustimer/internal/repository"
	"focustimer/internal/validation"
)

type SettingsService struct {
	repo *repository.SettingsRepository
}

func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context, userID string) (*model.Settings, *apperrors.APIError) {
	settings, err := s.repo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		defaults := model.DefaultSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get settings")
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, settings model.Settings) (*model.Settings, *apperrors.APIError) {
	if fields := validation.Struct(settings); fields != nil {
		return nil, apperrors.Validation(fields)
	}

	settings.AlarmSound = strings.TrimSpace(settings.AlarmSound)
	if settings.AlarmSound == "" {
		settings.AlarmSound = model.DefaultAlarmSound
	}

	if err := s.repo.Upsert(ctx, userID, settings, time.Now().UTC()); err != nil {
		return nil, apperrors.Internal("failed to save settings")
	}
	return &settings, nil
}
