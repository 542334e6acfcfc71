package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/model"
	"focustimer/internal/repository"
	"focustimer/internal/validation"
)

const xpPerFocusMinute = 10

type SessionService struct {
	repo         *repository.SessionRepository
	userRepo     *repository.UserRepository
	historyLimit int
	logger       *slog.Logger
}

func NewSessionService(
	repo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	historyLimit int,
	logger *slog.Logger,
) *SessionService {
	if historyLimit <= 0 {
		historyLimit = 500
	}
	return &SessionService{
		repo:         repo,
		userRepo:     userRepo,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Create stores one session record. Completed focus sessions also grant XP
// in the same transaction.
func (s *SessionService) Create(ctx context.Context, userID string, record model.SessionRecord) (*model.Session, *apperrors.APIError) {
	if apiErr := validateRecord(record); apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session := model.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            record.Type,
		Status:          record.Status,
		DurationSeconds: record.DurationSeconds,
		StartedAt:       record.StartedAt.UTC(),
		EndedAt:         record.EndedAt.UTC(),
		CreatedAt:       now,
	}

	if record.TaskID != nil && *record.TaskID != "" {
		exists, err := s.repo.TaskExistsTx(ctx, tx, userID, *record.TaskID)
		if err != nil {
			return nil, apperrors.Internal("failed to check task")
		}
		if exists {
			taskID := *record.TaskID
			session.TaskID = &taskID
		} else {
			s.logger.Warn("session references unknown task", "userId", userID, "taskId", *record.TaskID)
		}
	}

	if err := s.repo.InsertTx(ctx, tx, &session); err != nil {
		return nil, apperrors.Internal("failed to create session")
	}

	if gained := xpFor(session); gained > 0 {
		if err := s.userRepo.AddXPTx(ctx, tx, userID, gained, now); err != nil {
			return nil, apperrors.Internal("failed to update experience")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	return &session, nil
}

func (s *SessionService) List(ctx context.Context, userID, period string) ([]model.Session, *apperrors.APIError) {
	since, apiErr := sinceForPeriod(period, time.Now())
	if apiErr != nil {
		return nil, apiErr
	}
	sessions, err := s.repo.ListSince(ctx, userID, since, s.historyLimit)
	if err != nil {
		return nil, apperrors.Internal("failed to get sessions")
	}
	return sessions, nil
}

func (s *SessionService) Stats(ctx context.Context, userID, period string) (*model.SessionStats, *apperrors.APIError) {
	since, apiErr := sinceForPeriod(period, time.Now())
	if apiErr != nil {
		return nil, apiErr
	}
	if period == "" {
		period = "day"
	}

	groups, err := s.repo.GroupSince(ctx, userID, since)
	if err != nil {
		return nil, apperrors.Internal("failed to get session stats")
	}
	stats := Summarize(period, groups)
	return &stats, nil
}

// Summarize folds per-day groups into totals per type and per day. Groups
// must be ordered by date.
func Summarize(period string, groups []model.SessionGroup) model.SessionStats {
	stats := model.SessionStats{Period: period, Days: []model.DayStats{}}

	for _, group := range groups {
		stats.TotalSessions += group.Count
		if group.Status == model.SessionCompleted {
			stats.CompletedSessions += group.Count
		}
		switch group.Type {
		case model.PhaseFocus:
			stats.FocusSessions += group.Count
			stats.FocusSeconds += group.Seconds
		case model.PhaseShortBreak:
			stats.ShortBreaks += group.Count
			stats.BreakSeconds += group.Seconds
		case model.PhaseLongBreak:
			stats.LongBreaks += group.Count
			stats.BreakSeconds += group.Seconds
		}

		last := len(stats.Days) - 1
		if last < 0 || stats.Days[last].Date != group.Date {
			stats.Days = append(stats.Days, model.DayStats{Date: group.Date})
			last++
		}
		stats.Days[last].Sessions += group.Count
		if group.Type == model.PhaseFocus {
			stats.Days[last].FocusSeconds += group.Seconds
		}
	}
	return stats
}

func validateRecord(record model.SessionRecord) *apperrors.APIError {
	if fields := validation.Struct(record); fields != nil {
		return apperrors.Validation(fields)
	}
	return nil
}

func xpFor(session model.Session) int {
	if session.Status != model.SessionCompleted || session.Type != model.PhaseFocus {
		return 0
	}
	return session.DurationSeconds / 60 * xpPerFocusMinute
}

func sinceForPeriod(period string, now time.Time) (time.Time, *apperrors.APIError) {
	switch period {
	case "", "day":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, 0, -30), nil
	case "all":
		return time.Time{}, nil
	}
	return time.Time{}, apperrors.BadRequest("invalid_period", "period must be one of day, week, month, all")
}
