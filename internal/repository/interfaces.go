// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/agendago/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByResetToken はリセットトークンでユーザーを検索する。見つからない場合はnilを返す。
	// 有効期限の判定は呼び出し側で行う。
	FindByResetToken(ctx context.Context, token string) (*model.User, error)

	// ExistsByUsernameOrEmail はユーザー名またはメールアドレスが既に使用されているかを返す。
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// SetResetToken はリセットトークンと有効期限を保存する。
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	// UpdatePassword はパスワードハッシュを置き換え、リセットトークンと有効期限をクリアする。
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// ListByUserID はユーザーのカテゴリ一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error

	// CountByUserID はユーザーのカテゴリ数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// ListByUserID はユーザーのタスク一覧をカテゴリ名・色とJOINして作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]model.TaskWithCategory, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	// 所有者の検証は呼び出し側で行う。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクの全フィールドを上書き更新する。
	// actual_hoursはロールアップ専用のため、このメソッドでは更新しない。
	Update(ctx context.Context, task *model.Task) error

	// Delete は指定ユーザー所有のタスクを削除する。
	// 削除対象が存在しない（または他ユーザー所有の）場合はfalseを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)

	// CountByUserID はユーザーの総タスク数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// CountCompletedByUserID はユーザーの完了タスク数を返す。
	CountCompletedByUserID(ctx context.Context, userID string) (int, error)

	// CountByUserAndCategory は指定カテゴリに属するユーザーのタスク数を返す。
	CountByUserAndCategory(ctx context.Context, userID, categoryID string) (int, error)
}

// StudySessionRepository は学習セッションデータの永続化インターフェース。
// セッションは作成後不変のため、更新・削除は提供しない。
type StudySessionRepository interface {
	// CreateWithRollup はセッションの挿入と所属タスクのactual_hours加算を
	// 同一トランザクションで実行する。加算はデータベース内のアトミックな
	// インクリメントで行い、並行するセッション記録と競合しない。
	CreateWithRollup(ctx context.Context, session *model.StudySession, hoursToAdd float64) error

	// SumSecondsByUserID はユーザーの全タスクに紐づくセッション秒数の合計を返す。
	SumSecondsByUserID(ctx context.Context, userID string) (int64, error)

	// CountByUserID はユーザーの全タスクに紐づくセッション数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// AchievementRepository は実績カタログと解除記録の永続化インターフェース。
type AchievementRepository interface {
	// ListWithUnlocks は実績カタログ全件をユーザーの解除日時とLEFT JOINして返す。
	ListWithUnlocks(ctx context.Context, userID string) ([]model.AchievementWithUnlock, error)

	// Unlock は実績の解除記録を冪等に挿入する。
	// 既に解除済みの場合は何もしない。
	Unlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) error
}
