// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、平文パスワードは保持しない。
type User struct {
	ID           string
	Username     string
	Name         string
	Email        string
	BirthDate    *time.Time
	PasswordHash string

	// パスワードリセット用。発行時のみ値を持ち、リセット完了時にクリアされる。
	ResetToken          *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
}
