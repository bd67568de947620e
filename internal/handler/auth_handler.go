package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/agendago/internal/auth"
	"github.com/hitoshi/agendago/internal/metrics"
	"github.com/hitoshi/agendago/internal/middleware"
	"github.com/hitoshi/agendago/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、アクセストークンを発行する。
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, string, error)
	// Login はユーザー名とパスワードで認証し、アクセストークンを発行する。
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	// ForgotPassword はパスワードリセットをリクエストする。
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword はリセットトークンを消費して新しいパスワードを設定する。
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: collector,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	BirthDate string `json:"birth_date"`
	Password  string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// forgotPasswordRequest はパスワードリセット要求のボディ。
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest はパスワードリセット実行のボディ。
type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	BirthDate string `json:"birth_date,omitempty"`
}

// tokenResponse はトークン発行を伴う認証レスポンス。
type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// messageResponse は処理結果メッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// forgotPasswordMessage はリセット要求への応答メッセージ。
// メールアドレスの存在有無に関わらず常にこの文言を返す。
const forgotPasswordMessage = "登録されているメールアドレスの場合、パスワードリセットの手順をお送りしました。"

// Register はユーザー登録を処理する。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	input := auth.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_BIRTH_DATE",
				Message:  "生年月日の形式が正しくありません。",
				Category: "validation",
				Action:   "YYYY-MM-DD形式で指定してください。",
			})
			return
		}
		input.BirthDate = &birthDate
	}

	user, token, err := h.service.Register(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, tokenResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Login はログインを処理する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLoginFailure()
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordLoginSuccess()
	writeJSONResponse(w, http.StatusOK, tokenResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// ForgotPassword はパスワードリセット要求を処理する。
// POST /api/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, messageResponse{Message: forgotPasswordMessage})
}

// ResetPassword はパスワードリセット実行を処理する。
// POST /api/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "パスワードを変更しました。"})
}

// Me は認証済みユーザーの情報を返す。データベースアクセスは行わず、
// 検証済みトークンのクレームをそのまま返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	writeJSONResponse(w, http.StatusOK, userResponse{
		ID:       claims.UserID,
		Username: claims.Username,
		Name:     claims.Name,
		Email:    claims.Email,
	})
}

// toUserResponse はドメインのUserをレスポンス型に変換する。
func toUserResponse(user *model.User) userResponse {
	resp := userResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
	}
	if user.BirthDate != nil {
		resp.BirthDate = user.BirthDate.Format("2006-01-02")
	}
	return resp
}
