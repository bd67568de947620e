// Package study は学習セッションの記録と学習統計の集計を提供する。
package study

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/repository"
	"github.com/hitoshi/agendago/internal/security"
)

// CreateSessionInput は学習セッション記録の入力。
// DurationSecondsが正の場合は秒を採用し、分は無視する。
type CreateSessionInput struct {
	TaskID          string
	DurationMinutes int
	DurationSeconds int
	Notes           *string
	SessionDate     *time.Time
}

// Service は学習セッションと統計のビジネスロジックを提供する。
type Service struct {
	taskRepo    repository.TaskRepository
	sessionRepo repository.StudySessionRepository
	sanitizer   security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	taskRepo repository.TaskRepository,
	sessionRepo repository.StudySessionRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		taskRepo:    taskRepo,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
	}
}

// CreateSession は学習セッションを記録し、所属タスクの実績時間を加算する。
// 挿入と加算は同一トランザクションで行われ、片方だけが反映されることはない。
// 加算する時間は秒数を時間に換算し小数3桁に丸めた値。秒が未指定の場合は分から換算する。
func (s *Service) CreateSession(ctx context.Context, userID string, input CreateSessionInput) (*model.StudySession, error) {
	if input.TaskID == "" {
		return nil, model.NewEmptyFieldError("task_id")
	}
	if input.DurationSeconds <= 0 && input.DurationMinutes <= 0 {
		return nil, model.NewInvalidDurationError()
	}

	task, err := s.taskRepo.FindByID(ctx, input.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task == nil || task.UserID != userID {
		return nil, model.NewTaskNotFoundError(input.TaskID)
	}

	seconds := input.DurationSeconds
	minutes := input.DurationMinutes
	var hoursToAdd float64
	if seconds > 0 {
		hoursToAdd = round3(float64(seconds) / 3600)
		if minutes <= 0 {
			minutes = int(math.Round(float64(seconds) / 60))
		}
	} else {
		hoursToAdd = round3(float64(minutes) / 60)
		seconds = minutes * 60
	}

	sessionDate := time.Now()
	if input.SessionDate != nil {
		sessionDate = *input.SessionDate
	}

	session := &model.StudySession{
		ID:              uuid.New().String(),
		TaskID:          input.TaskID,
		DurationMinutes: minutes,
		DurationSeconds: seconds,
		Notes:           s.sanitizeOptional(input.Notes),
		SessionDate:     sessionDate,
	}

	if err := s.sessionRepo.CreateWithRollup(ctx, session, hoursToAdd); err != nil {
		return nil, fmt.Errorf("failed to create study session: %w", err)
	}

	slog.Info("study session recorded",
		slog.String("user_id", userID),
		slog.String("task_id", input.TaskID),
		slog.Int("duration_seconds", seconds),
		slog.Float64("hours_added", hoursToAdd),
	)
	return session, nil
}

// GetStats はユーザーの学習統計をオンデマンドで集計する。
// 合計学習時間はセッション秒数の合計を時間に換算し小数2桁に丸めた値。
func (s *Service) GetStats(ctx context.Context, userID string) (*model.UserStats, error) {
	totalTasks, err := s.taskRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	completedTasks, err := s.taskRepo.CountCompletedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	totalSeconds, err := s.sessionRepo.SumSecondsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum session seconds: %w", err)
	}

	sessionsCount, err := s.sessionRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	return &model.UserStats{
		TotalTasks:     totalTasks,
		CompletedTasks: completedTasks,
		TotalHours:     round2(float64(totalSeconds) / 3600),
		SessionsCount:  sessionsCount,
	}, nil
}

func (s *Service) sanitizeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	sanitized := s.sanitizer.SanitizeText(*text)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
