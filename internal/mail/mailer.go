// Package mail はパスワードリセットメールの送信を提供する。
//
// Mailerは認証サービスに明示的に注入するコラボレータとして設計する。
// SMTP認証情報が未設定の環境ではNopMailerを注入し、
// リセットリンクをログ出力のみで確認できるようにする。
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Mailer はメール送信のインターフェース。
type Mailer interface {
	// SendPasswordReset はパスワードリセットメールを送信する。
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error
}

// SMTPConfig はSMTP接続の設定。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer はSMTP経由でメールを送信するMailer実装。
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer はSMTPMailerを生成する。
// 接続はメッセージ送信時に確立されるため、ここではネットワークアクセスを行わない。
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// SendPasswordReset はパスワードリセットメールを送信する。
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat("Agenda Master", m.from); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject("パスワード再設定のご案内 - Agenda Master")
	msg.SetBodyString(gomail.TypeTextPlain, resetTextBody(toName, resetURL))
	msg.AddAlternativeString(gomail.TypeTextHTML, resetHTMLBody(toName, resetURL))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}

	return nil
}

// NopMailer はメールを送信しないMailer実装。
// SMTP未設定の環境向けに、リセットリンクをログに出力する。
type NopMailer struct{}

// NewNopMailer はNopMailerを生成する。
func NewNopMailer() *NopMailer {
	return &NopMailer{}
}

// SendPasswordReset はメールを送信せず、リセットリンクをログに出力する。
func (m *NopMailer) SendPasswordReset(_ context.Context, toEmail, _, resetURL string) error {
	slog.Info("mail transport not configured, logging reset link instead",
		slog.String("email", toEmail),
		slog.String("reset_url", resetURL),
	)
	return nil
}

// resetTextBody はプレーンテキスト版の本文を生成する。
func resetTextBody(name, resetURL string) string {
	return fmt.Sprintf(`%s 様

Agenda Masterのパスワード再設定がリクエストされました。

以下のリンクから新しいパスワードを設定してください:
%s

このリンクの有効期限は1時間です。
心当たりがない場合は、このメールを無視してください。
`, name, resetURL)
}

// resetHTMLBody はHTML版の本文を生成する。
func resetHTMLBody(name, resetURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>パスワード再設定のご案内</h2>
    <p>%s 様</p>
    <p>Agenda Masterのパスワード再設定がリクエストされました。</p>
    <p style="text-align: center;">
      <a href="%s" style="display: inline-block; background: #3b82f6; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 6px;">パスワードを再設定する</a>
    </p>
    <p>ボタンが動作しない場合は、次のリンクをブラウザに貼り付けてください:<br>%s</p>
    <p>このリンクの有効期限は1時間です。心当たりがない場合は、このメールを無視してください。</p>
  </div>
</body>
</html>`, name, resetURL, resetURL)
}

// compile-time interface checks
var _ Mailer = (*SMTPMailer)(nil)
var _ Mailer = (*NopMailer)(nil)
