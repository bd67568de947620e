package model

import "time"

// Category はタスクの分類カテゴリを表す。1ユーザーに属する。
type Category struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	CreatedAt time.Time
}

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid は優先度が定義済みの値であるかを返す。
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus はタスクの進行状態を表す。
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// IsValid はステータスが定義済みの値であるかを返す。
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// statusTransitions はサーバー側で許可するステータス遷移のホワイトリスト。
// completed → in_progress の再開は明示的に許可する。
// in_progress → pending の差し戻しは提供しない。
var statusTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:    {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusInProgress},
}

// CanTransitionTo は現在のステータスからtargetへの遷移が許可されているかを返す。
// 同一ステータスへの遷移は常に許可する（no-op扱い）。
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Task は学習タスクを表す。
// ActualHoursは学習セッションのロールアップによってのみ増加する。
// CompletedAtはステータスがcompletedに遷移した時点で記録される。
type Task struct {
	ID             string
	UserID         string
	CategoryID     string
	Title          string
	Description    *string
	Priority       TaskPriority
	Status         TaskStatus
	DueDate        *time.Time
	EstimatedHours float64
	ActualHours    float64
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// TaskWithCategory はタスクとカテゴリ情報をJOINした読み取り用構造体。
type TaskWithCategory struct {
	Task
	CategoryName  string
	CategoryColor string
}

// StudySession は1回の学習セッションの記録を表す。
// 作成後は不変であり、更新・削除のエンドポイントは提供しない。
// DurationSecondsが正の場合は秒が正、分は表示用の派生値として扱う。
type StudySession struct {
	ID              string
	TaskID          string
	DurationMinutes int
	DurationSeconds int
	Notes           *string
	SessionDate     time.Time
}

// UserStats はユーザーの学習統計のオンデマンド集計結果を表す。
type UserStats struct {
	TotalTasks     int
	CompletedTasks int
	TotalHours     float64
	SessionsCount  int
}
