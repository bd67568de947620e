package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/agendago/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListByUserID はユーザーのタスク一覧をカテゴリ名・色とJOINして作成日時降順で返す。
func (r *PostgresTaskRepo) ListByUserID(ctx context.Context, userID string) ([]model.TaskWithCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.category_id, t.title, t.description,
		        t.priority, t.status, t.due_date, t.estimated_hours, t.actual_hours,
		        t.created_at, t.completed_at,
		        c.name, c.color
		 FROM tasks t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskWithCategory
	for rows.Next() {
		var t model.TaskWithCategory
		err := rows.Scan(
			&t.ID, &t.UserID, &t.CategoryID, &t.Title, &t.Description,
			&t.Priority, &t.Status, &t.DueDate, &t.EstimatedHours, &t.ActualHours,
			&t.CreatedAt, &t.CompletedAt,
			&t.CategoryName, &t.CategoryColor,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
// 所有者の検証は呼び出し側で行う。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	t := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, title, description,
		        priority, status, due_date, estimated_hours, actual_hours,
		        created_at, completed_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(
		&t.ID, &t.UserID, &t.CategoryID, &t.Title, &t.Description,
		&t.Priority, &t.Status, &t.DueDate, &t.EstimatedHours, &t.ActualHours,
		&t.CreatedAt, &t.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task by ID: %w", err)
	}

	return t, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, category_id, title, description,
		                    priority, status, due_date, estimated_hours, actual_hours,
		                    created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		task.ID, task.UserID, task.CategoryID, task.Title, task.Description,
		task.Priority, task.Status, task.DueDate, task.EstimatedHours, task.ActualHours,
		task.CreatedAt, task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Update はタスクの全フィールドを上書き更新する。
// actual_hoursはロールアップ専用のため、このメソッドでは更新しない。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET category_id = $2, title = $3, description = $4,
		     priority = $5, status = $6, due_date = $7,
		     estimated_hours = $8, completed_at = $9
		 WHERE id = $1`,
		task.ID, task.CategoryID, task.Title, task.Description,
		task.Priority, task.Status, task.DueDate,
		task.EstimatedHours, task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	return nil
}

// Delete は指定ユーザー所有のタスクを削除する。
// 削除対象が存在しない（または他ユーザー所有の）場合はfalseを返す。
// 紐づく学習セッションはON DELETE CASCADEで削除される。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByUserID はユーザーの総タスク数を返す。
func (r *PostgresTaskRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// CountCompletedByUserID はユーザーの完了タスク数を返す。
func (r *PostgresTaskRepo) CountCompletedByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'completed'`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return count, nil
}

// CountByUserAndCategory は指定カテゴリに属するユーザーのタスク数を返す。
func (r *PostgresTaskRepo) CountByUserAndCategory(ctx context.Context, userID, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND category_id = $2`,
		userID, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks by category: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
