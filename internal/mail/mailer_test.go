package mail

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNopMailer_LogsResetLink(t *testing.T) {
	var buf bytes.Buffer
	original := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(original)

	m := NewNopMailer()
	err := m.SendPasswordReset(context.Background(), "user@example.com", "テスト太郎", "http://localhost:3000/reset-password?token=abc")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "user@example.com") {
		t.Errorf("log output should contain recipient email, got: %s", out)
	}
	if !strings.Contains(out, "token=abc") {
		t.Errorf("log output should contain reset URL, got: %s", out)
	}
}

func TestNewSMTPMailer_CreatesClientWithoutDialing(t *testing.T) {
	// 存在しないホストでもクライアント生成は成功する（接続は送信時）。
	m, err := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.invalid.example.com",
		Port:     587,
		Username: "user",
		Password: "secret",
		From:     "noreply@example.com",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m == nil {
		t.Fatal("expected non-nil mailer")
	}
}

func TestResetBodies_ContainResetURL(t *testing.T) {
	url := "http://localhost:3000/reset-password?token=xyz"

	text := resetTextBody("テスト太郎", url)
	if !strings.Contains(text, url) {
		t.Error("text body should contain reset URL")
	}
	if !strings.Contains(text, "テスト太郎") {
		t.Error("text body should contain recipient name")
	}

	html := resetHTMLBody("テスト太郎", url)
	if !strings.Contains(html, url) {
		t.Error("HTML body should contain reset URL")
	}
	if !strings.Contains(html, "1時間") {
		t.Error("HTML body should mention the 1 hour expiry")
	}
}
