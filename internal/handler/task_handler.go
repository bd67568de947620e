// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/agendago/internal/metrics"
	"github.com/hitoshi/agendago/internal/middleware"
	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// ListTasks はユーザーのタスク一覧をカテゴリ情報付きで返す。
	ListTasks(ctx context.Context, userID string) ([]model.TaskWithCategory, error)
	// CreateTask はタスクを作成する。
	CreateTask(ctx context.Context, userID string, input task.CreateTaskInput) (*model.Task, error)
	// UpdateTask はタスクを部分更新する。
	UpdateTask(ctx context.Context, userID, taskID string, input task.UpdateTaskInput) (*model.Task, error)
	// DeleteTask はタスクを削除する。
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
	metrics metrics.MetricsCollector
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, collector metrics.MetricsCollector) *TaskHandler {
	return &TaskHandler{
		service: service,
		metrics: collector,
	}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	CategoryID     string   `json:"category_id"`
	Title          string   `json:"title"`
	Description    *string  `json:"description"`
	Priority       string   `json:"priority"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

// updateTaskRequest はタスク部分更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateTaskRequest struct {
	CategoryID     *string  `json:"category_id"`
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Priority       *string  `json:"priority"`
	Status         *string  `json:"status"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Priority       string  `json:"priority"`
	Status         string  `json:"status"`
	DueDate        *string `json:"due_date"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	CreatedAt      string  `json:"created_at"`
	CompletedAt    *string `json:"completed_at"`
	CategoryName   string  `json:"category_name,omitempty"`
	CategoryColor  string  `json:"category_color,omitempty"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListTasks はタスク一覧を取得する。
// GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		resp := toTaskResponse(&t.Task)
		resp.CategoryName = t.CategoryName
		resp.CategoryColor = t.CategoryColor
		responses[i] = resp
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateTask はタスク作成を処理する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	input := task.CreateTaskInput{
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			writeInvalidDateResponse(w, "due_date")
			return
		}
		input.DueDate = &dueDate
	}

	created, err := h.service.CreateTask(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordTaskCreated()
	writeJSONResponse(w, http.StatusCreated, toTaskResponse(created))
}

// UpdateTask はタスクの部分更新を処理する。
// PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}
	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	input := task.UpdateTaskInput{
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         req.Status,
		EstimatedHours: req.EstimatedHours,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			writeInvalidDateResponse(w, "due_date")
			return
		}
		input.DueDate = &dueDate
	}

	updated, err := h.service.UpdateTask(r.Context(), userID, taskID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if req.Status != nil && updated.Status == model.StatusCompleted {
		h.metrics.RecordTaskCompleted()
	}
	writeJSONResponse(w, http.StatusOK, toTaskResponse(updated))
}

// DeleteTask はタスク削除を処理する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}
	taskID := chi.URLParam(r, "id")

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, messageResponse{Message: "タスクを削除しました。"})
}

// toTaskResponse はドメインのTaskをレスポンス型に変換する。
func toTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		ID:             t.ID,
		CategoryID:     t.CategoryID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		d := t.DueDate.Format("2006-01-02")
		resp.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &c
	}
	return resp
}

// parseDate は日付文字列を解釈する。日付のみとRFC3339の両方を受け付ける。
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorizedResponse は認証切れのエラーレスポンスを書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidBodyResponse はリクエストボディ解析失敗のエラーレスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeInvalidDateResponse は日付形式不正のエラーレスポンスを書き込む。
func writeInvalidDateResponse(w http.ResponseWriter, field string) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_DATE",
		Message:  field + " の形式が正しくありません。",
		Category: "validation",
		Action:   "YYYY-MM-DD形式で指定してください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserConflict:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeWeakPassword:
		return http.StatusBadRequest
	case model.ErrCodeInvalidResetToken, model.ErrCodeResetTokenExpired:
		return http.StatusBadRequest
	case model.ErrCodeTaskNotFound, model.ErrCodeCategoryNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeInvalidPriority, model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidDuration, model.ErrCodeEmptyField:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
