package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/security"
)

// mockCategoryRepo は関数フィールドで挙動を差し替えられるCategoryRepositoryのモック。
type mockCategoryRepo struct {
	listByUserIDFunc  func(ctx context.Context, userID string) ([]*model.Category, error)
	findByIDFunc      func(ctx context.Context, id string) (*model.Category, error)
	createFunc        func(ctx context.Context, category *model.Category) error
	countByUserIDFunc func(ctx context.Context, userID string) (int, error)
}

func (m *mockCategoryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Category, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	if m.countByUserIDFunc != nil {
		return m.countByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

// mockTaskRepo は関数フィールドで挙動を差し替えられるTaskRepositoryのモック。
type mockTaskRepo struct {
	listByUserIDFunc           func(ctx context.Context, userID string) ([]model.TaskWithCategory, error)
	findByIDFunc               func(ctx context.Context, id string) (*model.Task, error)
	createFunc                 func(ctx context.Context, task *model.Task) error
	updateFunc                 func(ctx context.Context, task *model.Task) error
	deleteFunc                 func(ctx context.Context, id, userID string) (bool, error)
	countByUserIDFunc          func(ctx context.Context, userID string) (int, error)
	countCompletedByUserIDFunc func(ctx context.Context, userID string) (int, error)
	countByUserAndCategoryFunc func(ctx context.Context, userID, categoryID string) (int, error)
}

func (m *mockTaskRepo) ListByUserID(ctx context.Context, userID string) ([]model.TaskWithCategory, error) {
	if m.listByUserIDFunc != nil {
		return m.listByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *model.Task) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, userID)
	}
	return false, nil
}

func (m *mockTaskRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	if m.countByUserIDFunc != nil {
		return m.countByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockTaskRepo) CountCompletedByUserID(ctx context.Context, userID string) (int, error) {
	if m.countCompletedByUserIDFunc != nil {
		return m.countCompletedByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockTaskRepo) CountByUserAndCategory(ctx context.Context, userID, categoryID string) (int, error) {
	if m.countByUserAndCategoryFunc != nil {
		return m.countByUserAndCategoryFunc(ctx, userID, categoryID)
	}
	return 0, nil
}

func ownedCategory(id, userID string) *model.Category {
	return &model.Category{ID: id, UserID: userID, Name: "数学", Color: "#3B82F6"}
}

func newTestService(categoryRepo *mockCategoryRepo, taskRepo *mockTaskRepo) *Service {
	return NewService(categoryRepo, taskRepo, security.NewTextSanitizer())
}

func strPtr(s string) *string { return &s }

func TestService_CreateCategory(t *testing.T) {
	var created *model.Category
	repo := &mockCategoryRepo{
		createFunc: func(ctx context.Context, category *model.Category) error {
			created = category
			return nil
		},
	}
	svc := newTestService(repo, &mockTaskRepo{})

	category, err := svc.CreateCategory(context.Background(), "user-1", "数学", "")
	if err != nil {
		t.Fatalf("CreateCategory returned error: %v", err)
	}
	if category.Color != defaultCategoryColor {
		t.Errorf("Color = %q, want default %q", category.Color, defaultCategoryColor)
	}
	if created == nil || created.UserID != "user-1" {
		t.Errorf("created category = %+v, want UserID user-1", created)
	}
}

func TestService_CreateCategory_SanitizesName(t *testing.T) {
	svc := newTestService(&mockCategoryRepo{}, &mockTaskRepo{})

	category, err := svc.CreateCategory(context.Background(), "user-1", "<b>数学</b>", "#FF0000")
	if err != nil {
		t.Fatalf("CreateCategory returned error: %v", err)
	}
	if category.Name != "数学" {
		t.Errorf("Name = %q, want HTML tags stripped", category.Name)
	}

	// タグのみの名前はサニタイズ後に空になり、必須エラーになる
	_, err = svc.CreateCategory(context.Background(), "user-1", "<script></script>", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyField {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeEmptyField)
	}
}

func TestService_CreateTask(t *testing.T) {
	categoryRepo := &mockCategoryRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Category, error) {
			return ownedCategory(id, "user-1"), nil
		},
	}
	var created *model.Task
	taskRepo := &mockTaskRepo{
		createFunc: func(ctx context.Context, task *model.Task) error {
			created = task
			return nil
		},
	}
	svc := newTestService(categoryRepo, taskRepo)

	task, err := svc.CreateTask(context.Background(), "user-1", CreateTaskInput{
		CategoryID:  "cat-1",
		Title:       "<script>alert(1)</script>微分の復習",
		Description: strPtr("第3章<img src=x>の問題"),
	})
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}
	if task.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", task.Status)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want default medium", task.Priority)
	}
	if task.EstimatedHours != 1 {
		t.Errorf("EstimatedHours = %v, want default 1", task.EstimatedHours)
	}
	if task.Title != "微分の復習" {
		t.Errorf("Title = %q, want script tag stripped", task.Title)
	}
	if task.Description == nil || *task.Description != "第3章の問題" {
		t.Errorf("Description = %v, want img tag stripped", task.Description)
	}
	if created == nil {
		t.Fatal("Create was not called")
	}
}

func TestService_CreateTask_InvalidPriority(t *testing.T) {
	svc := newTestService(&mockCategoryRepo{}, &mockTaskRepo{})

	_, err := svc.CreateTask(context.Background(), "user-1", CreateTaskInput{
		CategoryID: "cat-1",
		Title:      "微分の復習",
		Priority:   "urgent",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidPriority {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeInvalidPriority)
	}
}

func TestService_CreateTask_CategoryNotOwned(t *testing.T) {
	categoryRepo := &mockCategoryRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Category, error) {
			return ownedCategory(id, "someone-else"), nil
		},
	}
	svc := newTestService(categoryRepo, &mockTaskRepo{})

	_, err := svc.CreateTask(context.Background(), "user-1", CreateTaskInput{
		CategoryID: "cat-1",
		Title:      "微分の復習",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCategoryNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeCategoryNotFound)
	}
}

func TestService_UpdateTask_StatusTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     model.TaskStatus
		to       string
		wantCode string
	}{
		{name: "pendingから着手", from: model.StatusPending, to: "in_progress"},
		{name: "pendingから直接完了", from: model.StatusPending, to: "completed"},
		{name: "着手中から完了", from: model.StatusInProgress, to: "completed"},
		{name: "完了から再開", from: model.StatusCompleted, to: "in_progress"},
		{name: "同一ステータスは許可", from: model.StatusInProgress, to: "in_progress"},
		{name: "着手中から差し戻しは不可", from: model.StatusInProgress, to: "pending", wantCode: model.ErrCodeInvalidTransition},
		{name: "完了から未着手は不可", from: model.StatusCompleted, to: "pending", wantCode: model.ErrCodeInvalidTransition},
		{name: "未定義のステータス", from: model.StatusPending, to: "archived", wantCode: model.ErrCodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taskRepo := &mockTaskRepo{
				findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
					return &model.Task{
						ID:     id,
						UserID: "user-1",
						Title:  "微分の復習",
						Status: tt.from,
					}, nil
				},
			}
			svc := newTestService(&mockCategoryRepo{}, taskRepo)

			updated, err := svc.UpdateTask(context.Background(), "user-1", "task-1", UpdateTaskInput{
				Status: &tt.to,
			})
			if tt.wantCode != "" {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
					t.Errorf("error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateTask returned error: %v", err)
			}
			if string(updated.Status) != tt.to {
				t.Errorf("Status = %q, want %q", updated.Status, tt.to)
			}
		})
	}
}

func TestService_UpdateTask_StampsCompletedAt(t *testing.T) {
	taskRepo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{ID: id, UserID: "user-1", Title: "微分の復習", Status: model.StatusInProgress}, nil
		},
	}
	svc := newTestService(&mockCategoryRepo{}, taskRepo)

	status := "completed"
	before := time.Now()
	updated, err := svc.UpdateTask(context.Background(), "user-1", "task-1", UpdateTaskInput{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Fatal("CompletedAt should be set on transition to completed")
	}
	if updated.CompletedAt.Before(before) {
		t.Errorf("CompletedAt = %v, want at or after %v", updated.CompletedAt, before)
	}
}

func TestService_UpdateTask_KeepsCompletedAtOnReopen(t *testing.T) {
	completedAt := time.Now().Add(-time.Hour)
	taskRepo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{
				ID:          id,
				UserID:      "user-1",
				Title:       "微分の復習",
				Status:      model.StatusCompleted,
				CompletedAt: &completedAt,
			}, nil
		},
	}
	svc := newTestService(&mockCategoryRepo{}, taskRepo)

	status := "in_progress"
	updated, err := svc.UpdateTask(context.Background(), "user-1", "task-1", UpdateTaskInput{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(completedAt) {
		t.Errorf("CompletedAt = %v, want preserved %v", updated.CompletedAt, completedAt)
	}
}

// 他ユーザー所有のタスクへのアクセスは、存在しないタスクと同じエラーになる。
func TestService_UpdateTask_OtherUsersTask(t *testing.T) {
	taskRepo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{ID: id, UserID: "someone-else", Title: "微分の復習", Status: model.StatusPending}, nil
		},
	}
	svc := newTestService(&mockCategoryRepo{}, taskRepo)

	title := "改題"
	_, err := svc.UpdateTask(context.Background(), "user-1", "task-1", UpdateTaskInput{Title: &title})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTaskNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeTaskNotFound)
	}
}

func TestService_UpdateTask_PartialMerge(t *testing.T) {
	desc := "元の説明"
	taskRepo := &mockTaskRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{
				ID:             id,
				UserID:         "user-1",
				CategoryID:     "cat-1",
				Title:          "微分の復習",
				Description:    &desc,
				Priority:       model.PriorityHigh,
				Status:         model.StatusPending,
				EstimatedHours: 2.5,
			}, nil
		},
	}
	svc := newTestService(&mockCategoryRepo{}, taskRepo)

	title := "積分の復習"
	updated, err := svc.UpdateTask(context.Background(), "user-1", "task-1", UpdateTaskInput{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.Title != "積分の復習" {
		t.Errorf("Title = %q, want updated", updated.Title)
	}
	// 指定しなかったフィールドは維持される
	if updated.Description == nil || *updated.Description != "元の説明" {
		t.Errorf("Description = %v, want unchanged", updated.Description)
	}
	if updated.Priority != model.PriorityHigh || updated.EstimatedHours != 2.5 {
		t.Errorf("unchanged fields were modified: %+v", updated)
	}
}

func TestService_DeleteTask(t *testing.T) {
	tests := []struct {
		name    string
		deleted bool
		wantErr bool
	}{
		{name: "削除成功", deleted: true, wantErr: false},
		{name: "存在しない（または他ユーザー所有）", deleted: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taskRepo := &mockTaskRepo{
				deleteFunc: func(ctx context.Context, id, userID string) (bool, error) {
					return tt.deleted, nil
				},
			}
			svc := newTestService(&mockCategoryRepo{}, taskRepo)

			err := svc.DeleteTask(context.Background(), "user-1", "task-1")
			if tt.wantErr {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTaskNotFound {
					t.Errorf("error = %v, want code %s", err, model.ErrCodeTaskNotFound)
				}
				return
			}
			if err != nil {
				t.Errorf("DeleteTask returned error: %v", err)
			}
		})
	}
}
