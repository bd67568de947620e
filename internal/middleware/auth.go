// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/agendago/internal/auth"
	"github.com/hitoshi/agendago/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// claimsContextKey はリクエストコンテキストにトークンクレームを格納するためのキー。
var claimsContextKey = contextKey("claims")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenManagerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenStr string) (*auth.Claims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証済みユーザーIDとクレームをリクエストコンテキストに注入する。
// トークンがない場合は401、無効なトークンには403を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "TOKEN_REQUIRED",
					Message:  "アクセストークンが必要です。",
					Category: "auth",
					Action:   "ログインしてから再度お試しください。",
				})
				return
			}

			// 2. トークンの署名と有効期限を検証
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     "INVALID_TOKEN",
					Message:  "アクセストークンが無効です。",
					Category: "auth",
					Action:   "再度ログインしてください。",
				})
				return
			}

			// 3. 検証済みユーザーIDとクレームをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, claims.UserID)
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// 形式が不正な場合は空文字を返す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ClaimsFromContext はリクエストコンテキストからトークンクレームを取得する。
func ClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithClaims はコンテキストにトークンクレームとユーザーIDを注入する。
// テスト用。
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, claims.UserID)
	return context.WithValue(ctx, claimsContextKey, claims)
}
