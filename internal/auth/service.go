// Package auth はユーザー登録、ログイン、パスワードリセットのビジネスロジックと
// アクセストークンの発行・検証を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/agendago/internal/mail"
	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost    int
	ResetTokenTTL time.Duration // リセットトークンの有効期間
	FrontendURL   string        // リセットリンクのベースURL
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username  string
	Name      string
	Email     string
	BirthDate *time.Time
	Password  string
}

// Service は認証に関するビジネスロジックを提供する。
// メール送信は注入されたMailerに委譲し、グローバル状態を持たない。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	mailer   mail.Mailer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokens *TokenManager,
	mailer mail.Mailer,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		config:   config,
	}
}

// Register は新規ユーザーを登録し、アクセストークンを発行する。
// ユーザー名またはメールアドレスが既に使用されている場合はエラーを返す。
// パスワードはbcryptハッシュとして保存し、平文は保持しない。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, string, error) {
	if input.Username == "" {
		return nil, "", model.NewEmptyFieldError("username")
	}
	if input.Name == "" {
		return nil, "", model.NewEmptyFieldError("name")
	}
	if input.Email == "" {
		return nil, "", model.NewEmptyFieldError("email")
	}

	// パスワード要件はクライアントに依存せずサーバー側で検証する
	if err := ValidatePassword(input.Password); err != nil {
		return nil, "", err
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, "", model.NewUserConflictError()
	}

	hash, err := HashPassword(input.Password, s.config.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Name:         input.Name,
		Email:        input.Email,
		BirthDate:    input.BirthDate,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, token, nil
}

// Login はユーザー名とパスワードで認証し、アクセストークンを発行する。
// ユーザー不在とパスワード不一致は同一のエラーとして返し、ユーザーの存在を漏らさない。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	if username == "" || password == "" {
		return nil, "", model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, "", model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return user, token, nil
}

// ForgotPassword はパスワードリセットをリクエストする。
// メールアドレスの存在有無に関わらずエラーを返さない（列挙攻撃対策）。
// ユーザーが存在する場合はリセットトークンを発行・保存し、メールを送信する。
// メール送信の失敗はリセットフローを中断しない（リンクはログで確認できる）。
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return model.NewEmptyFieldError("email")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		// 存在しないメールアドレスでも成功として扱う
		slog.Info("password reset requested for unknown email")
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := time.Now().Add(s.config.ResetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.FrontendURL, token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		// トークンは保存済みのため、送信失敗でもフローは成功扱い
		slog.Error("failed to send password reset mail",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		slog.Info("password reset link (mail delivery failed)",
			slog.String("user_id", user.ID),
			slog.String("reset_url", resetURL),
		)
		return nil
	}

	slog.Info("password reset mail sent", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword はリセットトークンを消費して新しいパスワードを設定する。
// トークンが不明、または有効期限切れの場合はエラーを返す。
// 成功時はパスワードハッシュを置き換え、トークンと有効期限をクリアする。
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return model.NewEmptyFieldError("token")
	}

	// 新パスワードも登録時と同一のルールセットで検証する
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to find user by reset token: %w", err)
	}
	if user == nil {
		return model.NewInvalidResetTokenError()
	}

	// 発行時刻T、有効期間1時間のトークンはT+1h以降の試行で失敗する
	if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(time.Now()) {
		return model.NewResetTokenExpiredError()
	}

	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset completed", slog.String("user_id", user.ID))
	return nil
}

// generateResetToken は暗号的に安全なリセットトークンを生成する。
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
