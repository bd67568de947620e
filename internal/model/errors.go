// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserConflict       = "USER_ALREADY_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	ErrCodeResetTokenExpired  = "RESET_TOKEN_EXPIRED"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeCategoryNotFound   = "CATEGORY_NOT_FOUND"
	ErrCodeInvalidPriority    = "INVALID_PRIORITY"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInvalidTransition  = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidDuration    = "INVALID_DURATION"
	ErrCodeEmptyField         = "EMPTY_FIELD"
)

// NewUserConflictError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewUserConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeUserConflict,
		Message:  "ユーザー名またはメールアドレスは既に使用されています。",
		Category: "auth",
		Action:   "別のユーザー名またはメールアドレスで登録してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewWeakPasswordError はパスワード要件違反エラーを生成する。
func NewWeakPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "パスワードは6文字以上で、小文字と数字をそれぞれ1文字以上含む必要があります。",
		Category: "validation",
		Action:   "要件を満たすパスワードを設定してください。",
	}
}

// NewInvalidResetTokenError は無効なリセットトークンエラーを生成する。
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResetToken,
		Message:  "リセットトークンが無効です。",
		Category: "auth",
		Action:   "パスワードリセットを再度リクエストしてください。",
	}
}

// NewResetTokenExpiredError は期限切れリセットトークンエラーを生成する。
func NewResetTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeResetTokenExpired,
		Message:  "リセットトークンの有効期限が切れています。",
		Category: "auth",
		Action:   "パスワードリセットを再度リクエストしてください。有効期限は1時間です。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザー所有のタスクへのアクセスも同じエラーとして扱う。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(categoryID string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %s", categoryID),
		Category: "task",
		Action:   "カテゴリIDを確認してください。",
	}
}

// NewInvalidPriorityError は無効な優先度エラーを生成する。
func NewInvalidPriorityError(priority string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPriority,
		Message:  fmt.Sprintf("無効な優先度です: %s", priority),
		Category: "validation",
		Action:   "優先度には low、medium、high のいずれかを指定してください。",
	}
}

// NewInvalidStatusError は無効なステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには pending、in_progress、completed のいずれかを指定してください。",
	}
}

// NewInvalidTransitionError は許可されないステータス遷移エラーを生成する。
func NewInvalidTransitionError(from, to TaskStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("ステータスを %s から %s に変更することはできません。", from, to),
		Category: "validation",
		Action:   "許可されている遷移は pending→in_progress、pending→completed、in_progress→completed、completed→in_progress です。",
	}
}

// NewInvalidDurationError は無効なセッション時間エラーを生成する。
func NewInvalidDurationError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDuration,
		Message:  "セッション時間には正の値を指定してください。",
		Category: "validation",
		Action:   "duration_secondsまたはduration_minutesに1以上の値を指定してください。",
	}
}

// NewEmptyFieldError は必須フィールド未指定エラーを生成する。
func NewEmptyFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeEmptyField,
		Message:  fmt.Sprintf("%s は必須です。", field),
		Category: "validation",
		Action:   "必須フィールドを入力してください。",
	}
}
