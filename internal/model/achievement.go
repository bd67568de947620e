package model

import "time"

// AchievementType は実績の判定種別を表す。
type AchievementType string

const (
	// AchievementStudyTime は累計学習時間（時間単位）で判定する。
	AchievementStudyTime AchievementType = "study_time"
	// AchievementTasksCompleted は完了タスク数で判定する。
	AchievementTasksCompleted AchievementType = "tasks_completed"
	// AchievementCategory はカテゴリ関連の件数で判定する。
	// ExtraConditionにカテゴリ名がある場合はそのカテゴリのタスク数、
	// ない場合はカテゴリの作成数で判定する。
	AchievementCategory AchievementType = "category"
	// AchievementStreak は連続学習日数での判定を想定した種別。
	// 判定ロジックは未実装であり、自動解除の対象にならない。
	AchievementStreak AchievementType = "streak"
	// AchievementSpecial は特殊条件での判定を想定した種別。
	// 判定ロジックは未実装であり、自動解除の対象にならない。
	AchievementSpecial AchievementType = "special"
)

// Achievement は静的な実績カタログのエントリを表す。ユーザーには属さない。
type Achievement struct {
	ID             string
	Name           string
	Description    string
	Icon           string
	Type           AchievementType
	Threshold      float64
	ExtraCondition *string
	CreatedAt      time.Time
}

// UserAchievement はユーザーと実績の解除記録を表す。
type UserAchievement struct {
	ID            string
	UserID        string
	AchievementID string
	UnlockedAt    time.Time
}

// AchievementWithUnlock は実績カタログとユーザーの解除日時をLEFT JOINした読み取り用構造体。
// UnlockedAtがnilの場合は未解除を意味する。
type AchievementWithUnlock struct {
	Achievement
	UnlockedAt *time.Time
}
