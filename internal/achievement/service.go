// Package achievement は実績カタログの取得と解除判定のビジネスロジックを提供する。
package achievement

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/repository"
)

// Status は実績1件の判定結果を表す。
// Progressは現在の進捗値（実績の種別に応じた単位）、Unlockedは解除済みか。
type Status struct {
	model.Achievement
	Progress   float64
	Unlocked   bool
	UnlockedAt *time.Time
}

// Service は実績のビジネスロジックを提供する。
// 解除判定はサーバー側で行い、閾値を超えた実績は取得時に永続化する。
type Service struct {
	achievementRepo repository.AchievementRepository
	taskRepo        repository.TaskRepository
	sessionRepo     repository.StudySessionRepository
	categoryRepo    repository.CategoryRepository
}

// NewService はServiceを生成する。
func NewService(
	achievementRepo repository.AchievementRepository,
	taskRepo repository.TaskRepository,
	sessionRepo repository.StudySessionRepository,
	categoryRepo repository.CategoryRepository,
) *Service {
	return &Service{
		achievementRepo: achievementRepo,
		taskRepo:        taskRepo,
		sessionRepo:     sessionRepo,
		categoryRepo:    categoryRepo,
	}
}

// ListAchievements は実績カタログ全件を進捗と解除状態付きで返す。
// 進捗が閾値に達した未解除の実績はこの呼び出しの中で解除を記録する。
// streakとspecialの判定ロジックは未実装のため、自動解除の対象にならない。
func (s *Service) ListAchievements(ctx context.Context, userID string) ([]Status, error) {
	achievements, err := s.achievementRepo.ListWithUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	totalSeconds, err := s.sessionRepo.SumSecondsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum session seconds: %w", err)
	}
	totalHours := float64(totalSeconds) / 3600

	completedTasks, err := s.taskRepo.CountCompletedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	categories, err := s.categoryRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categoryIDByName := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryIDByName[c.Name] = c.ID
	}

	statuses := make([]Status, 0, len(achievements))
	for _, a := range achievements {
		progress, evaluable, err := s.progressFor(ctx, userID, a.Achievement, totalHours, completedTasks, len(categories), categoryIDByName)
		if err != nil {
			return nil, err
		}

		status := Status{
			Achievement: a.Achievement,
			Progress:    math.Min(progress, a.Threshold),
			Unlocked:    a.UnlockedAt != nil,
			UnlockedAt:  a.UnlockedAt,
		}

		// 閾値を初めて超えた実績はここで解除を記録する
		if !status.Unlocked && evaluable && progress >= a.Threshold {
			now := time.Now()
			if err := s.achievementRepo.Unlock(ctx, userID, a.ID, now); err != nil {
				return nil, fmt.Errorf("failed to unlock achievement: %w", err)
			}
			status.Unlocked = true
			status.UnlockedAt = &now
			slog.Info("achievement unlocked",
				slog.String("user_id", userID),
				slog.String("achievement_id", a.ID),
				slog.String("achievement_name", a.Name),
			)
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

// progressFor は実績種別に応じた現在の進捗値を返す。
// evaluableがfalseの場合、その実績は自動解除の対象にならない。
func (s *Service) progressFor(
	ctx context.Context,
	userID string,
	a model.Achievement,
	totalHours float64,
	completedTasks int,
	categoriesCount int,
	categoryIDByName map[string]string,
) (progress float64, evaluable bool, err error) {
	switch a.Type {
	case model.AchievementStudyTime:
		return totalHours, true, nil

	case model.AchievementTasksCompleted:
		return float64(completedTasks), true, nil

	case model.AchievementCategory:
		// 条件にカテゴリ名がある場合はそのカテゴリのタスク数、ない場合はカテゴリ数
		if a.ExtraCondition == nil || *a.ExtraCondition == "" {
			return float64(categoriesCount), true, nil
		}
		categoryID, ok := categoryIDByName[*a.ExtraCondition]
		if !ok {
			return 0, true, nil
		}
		count, err := s.taskRepo.CountByUserAndCategory(ctx, userID, categoryID)
		if err != nil {
			return 0, false, fmt.Errorf("failed to count tasks by category: %w", err)
		}
		return float64(count), true, nil

	default:
		// streak, special
		return 0, false, nil
	}
}
