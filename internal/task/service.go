// Package task はカテゴリとタスクのCRUDに関するビジネスロジックを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/repository"
	"github.com/hitoshi/agendago/internal/security"
)

// defaultCategoryColor は色未指定時に割り当てるカテゴリ色。
const defaultCategoryColor = "#3B82F6"

// CreateTaskInput はタスク作成の入力。
type CreateTaskInput struct {
	CategoryID     string
	Title          string
	Description    *string
	Priority       string
	DueDate        *time.Time
	EstimatedHours *float64
}

// UpdateTaskInput はタスク部分更新の入力。
// nilのフィールドは変更しない。
type UpdateTaskInput struct {
	CategoryID     *string
	Title          *string
	Description    *string
	Priority       *string
	Status         *string
	DueDate        *time.Time
	EstimatedHours *float64
}

// Service はカテゴリとタスクのビジネスロジックを提供する。
// ユーザー入力の自由テキストは保存前にサニタイズする。
type Service struct {
	categoryRepo repository.CategoryRepository
	taskRepo     repository.TaskRepository
	sanitizer    security.TextSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	categoryRepo repository.CategoryRepository,
	taskRepo repository.TaskRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		taskRepo:     taskRepo,
		sanitizer:    sanitizer,
	}
}

// ListCategories はユーザーのカテゴリ一覧を返す。
func (s *Service) ListCategories(ctx context.Context, userID string) ([]*model.Category, error) {
	categories, err := s.categoryRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory はカテゴリを作成する。
// 色が未指定の場合はデフォルト色を割り当てる。
func (s *Service) CreateCategory(ctx context.Context, userID, name, color string) (*model.Category, error) {
	name = s.sanitizer.SanitizeText(name)
	if name == "" {
		return nil, model.NewEmptyFieldError("name")
	}
	if color == "" {
		color = defaultCategoryColor
	}

	category := &model.Category{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("category created",
		slog.String("user_id", userID),
		slog.String("category_id", category.ID),
	)
	return category, nil
}

// ListTasks はユーザーのタスク一覧をカテゴリ情報付きで返す。
func (s *Service) ListTasks(ctx context.Context, userID string) ([]model.TaskWithCategory, error) {
	tasks, err := s.taskRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask はタスクを作成する。ステータスは常にpendingで開始する。
// 指定カテゴリが存在しない、または他ユーザー所有の場合はエラーを返す。
func (s *Service) CreateTask(ctx context.Context, userID string, input CreateTaskInput) (*model.Task, error) {
	title := s.sanitizer.SanitizeText(input.Title)
	if title == "" {
		return nil, model.NewEmptyFieldError("title")
	}
	if input.CategoryID == "" {
		return nil, model.NewEmptyFieldError("category_id")
	}

	priority := model.TaskPriority(input.Priority)
	if input.Priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, model.NewInvalidPriorityError(input.Priority)
	}

	if err := s.checkCategoryOwnership(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	// 見積もり時間は未指定の場合1時間とする
	estimatedHours := 1.0
	if input.EstimatedHours != nil {
		estimatedHours = *input.EstimatedHours
	}

	task := &model.Task{
		ID:             uuid.New().String(),
		UserID:         userID,
		CategoryID:     input.CategoryID,
		Title:          title,
		Description:    s.sanitizeOptional(input.Description),
		Priority:       priority,
		Status:         model.StatusPending,
		DueDate:        input.DueDate,
		EstimatedHours: estimatedHours,
		CreatedAt:      time.Now(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created",
		slog.String("user_id", userID),
		slog.String("task_id", task.ID),
	)
	return task, nil
}

// UpdateTask はタスクを部分更新する。
// 存在しない、または他ユーザー所有のタスクは未検出として扱い、存在を漏らさない。
// ステータス変更は遷移表で検証し、completedへの遷移時に完了日時を記録する。
// 完了日時は再開時もクリアせず、最後に完了した日時として保持する。
func (s *Service) UpdateTask(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task == nil || task.UserID != userID {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	if input.Title != nil {
		title := s.sanitizer.SanitizeText(*input.Title)
		if title == "" {
			return nil, model.NewEmptyFieldError("title")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = s.sanitizeOptional(input.Description)
	}
	if input.CategoryID != nil && *input.CategoryID != task.CategoryID {
		if err := s.checkCategoryOwnership(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
		task.CategoryID = *input.CategoryID
	}
	if input.Priority != nil {
		priority := model.TaskPriority(*input.Priority)
		if !priority.IsValid() {
			return nil, model.NewInvalidPriorityError(*input.Priority)
		}
		task.Priority = priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
	}

	if input.Status != nil {
		next := model.TaskStatus(*input.Status)
		if !next.IsValid() {
			return nil, model.NewInvalidStatusError(*input.Status)
		}
		if !task.Status.CanTransitionTo(next) {
			return nil, model.NewInvalidTransitionError(task.Status, next)
		}
		if next == model.StatusCompleted && task.Status != model.StatusCompleted {
			now := time.Now()
			task.CompletedAt = &now
		}
		task.Status = next
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	slog.Info("task updated",
		slog.String("user_id", userID),
		slog.String("task_id", task.ID),
		slog.String("status", string(task.Status)),
	)
	return task, nil
}

// DeleteTask はタスクを削除する。紐づく学習セッションはデータベース側で連鎖削除される。
// 存在しない、または他ユーザー所有のタスクは未検出として扱う。
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	deleted, err := s.taskRepo.Delete(ctx, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(taskID)
	}

	slog.Info("task deleted",
		slog.String("user_id", userID),
		slog.String("task_id", taskID),
	)
	return nil
}

func (s *Service) checkCategoryOwnership(ctx context.Context, userID, categoryID string) error {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to find category: %w", err)
	}
	if category == nil || category.UserID != userID {
		return model.NewCategoryNotFoundError(categoryID)
	}
	return nil
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
