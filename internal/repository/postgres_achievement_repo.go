package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/agendago/internal/model"
)

// PostgresAchievementRepo はPostgreSQLを使用した実績リポジトリ。
type PostgresAchievementRepo struct {
	db *sql.DB
}

// NewPostgresAchievementRepo はPostgresAchievementRepoを生成する。
func NewPostgresAchievementRepo(db *sql.DB) *PostgresAchievementRepo {
	return &PostgresAchievementRepo{db: db}
}

// ListWithUnlocks は実績カタログ全件をユーザーの解除日時とLEFT JOINして返す。
func (r *PostgresAchievementRepo) ListWithUnlocks(ctx context.Context, userID string) ([]model.AchievementWithUnlock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.description, a.icon, a.type, a.threshold, a.extra_condition, a.created_at,
		        ua.unlocked_at
		 FROM achievements a
		 LEFT JOIN user_achievements ua
		   ON ua.achievement_id = a.id AND ua.user_id = $1
		 ORDER BY a.created_at, a.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []model.AchievementWithUnlock
	for rows.Next() {
		var a model.AchievementWithUnlock
		err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.Icon, &a.Type, &a.Threshold,
			&a.ExtraCondition, &a.CreatedAt, &a.UnlockedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}

	return achievements, nil
}

// Unlock は実績の解除記録を冪等に挿入する。
// ON CONFLICT DO NOTHINGにより、並行する評価が同じ実績を解除しても競合しない。
func (r *PostgresAchievementRepo) Unlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		uuid.New().String(), userID, achievementID, unlockedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to unlock achievement: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AchievementRepository = (*PostgresAchievementRepo)(nil)
