package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/agendago/internal/model"
)

// PostgresStudySessionRepo はPostgreSQLを使用した学習セッションリポジトリ。
type PostgresStudySessionRepo struct {
	db *sql.DB
}

// NewPostgresStudySessionRepo はPostgresStudySessionRepoを生成する。
func NewPostgresStudySessionRepo(db *sql.DB) *PostgresStudySessionRepo {
	return &PostgresStudySessionRepo{db: db}
}

// CreateWithRollup はセッションの挿入と所属タスクのactual_hours加算を
// 同一トランザクションで実行する。
// 加算はSET actual_hours = actual_hours + $x のアトミックなインクリメントで行うため、
// 同一タスクへの並行セッション記録でもロストアップデートは発生しない。
func (r *PostgresStudySessionRepo) CreateWithRollup(ctx context.Context, session *model.StudySession, hoursToAdd float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO study_sessions (id, task_id, duration_minutes, duration_seconds, notes, session_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.TaskID, session.DurationMinutes, session.DurationSeconds,
		session.Notes, session.SessionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert study session: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE tasks SET actual_hours = actual_hours + $2 WHERE id = $1`,
		session.TaskID, hoursToAdd,
	)
	if err != nil {
		return fmt.Errorf("failed to roll up task hours: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %s", session.TaskID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SumSecondsByUserID はユーザーの全タスクに紐づくセッション秒数の合計を返す。
func (r *PostgresStudySessionRepo) SumSecondsByUserID(ctx context.Context, userID string) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(s.duration_seconds)
		 FROM study_sessions s
		 JOIN tasks t ON t.id = s.task_id
		 WHERE t.user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum session seconds: %w", err)
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Int64, nil
}

// CountByUserID はユーザーの全タスクに紐づくセッション数を返す。
func (r *PostgresStudySessionRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(s.id)
		 FROM study_sessions s
		 JOIN tasks t ON t.id = s.task_id
		 WHERE t.user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ StudySessionRepository = (*PostgresStudySessionRepo)(nil)
