package auth

import (
	"fmt"
	"unicode"

	"github.com/hitoshi/agendago/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// HashPassword はパスワードのbcryptハッシュを生成する。
func HashPassword(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword は平文パスワードがハッシュと一致するかを返す。
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePassword はパスワード要件をサーバー側で検証する。
// 要件: 6文字以上、小文字1文字以上、数字1文字以上。
// クライアント側の検証と同一のルールセットであり、呼び出し元に依存せず契約を強制する。
func ValidatePassword(plain string) error {
	if len(plain) < minPasswordLength {
		return model.NewWeakPasswordError()
	}

	var hasLower, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasDigit {
		return model.NewWeakPasswordError()
	}

	return nil
}
