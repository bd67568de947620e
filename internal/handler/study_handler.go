package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/agendago/internal/metrics"
	"github.com/hitoshi/agendago/internal/middleware"
	"github.com/hitoshi/agendago/internal/model"
	"github.com/hitoshi/agendago/internal/study"
)

// StudyServiceInterface は学習セッションハンドラーが必要とするサービスインターフェース。
type StudyServiceInterface interface {
	// CreateSession は学習セッションを記録し、所属タスクの実績時間を加算する。
	CreateSession(ctx context.Context, userID string, input study.CreateSessionInput) (*model.StudySession, error)
	// GetStats はユーザーの学習統計をオンデマンドで集計する。
	GetStats(ctx context.Context, userID string) (*model.UserStats, error)
}

// StudyHandler は学習セッションと統計のHTTPハンドラー。
type StudyHandler struct {
	service StudyServiceInterface
	metrics metrics.MetricsCollector
}

// NewStudyHandler はStudyHandlerを生成する。
func NewStudyHandler(service StudyServiceInterface, collector metrics.MetricsCollector) *StudyHandler {
	return &StudyHandler{
		service: service,
		metrics: collector,
	}
}

// createSessionRequest は学習セッション記録リクエストのボディ。
type createSessionRequest struct {
	TaskID          string  `json:"task_id"`
	DurationMinutes int     `json:"duration_minutes"`
	DurationSeconds int     `json:"duration_seconds"`
	Notes           *string `json:"notes"`
	SessionDate     *string `json:"session_date"`
}

// sessionResponse は学習セッションのAPIレスポンス。
type sessionResponse struct {
	ID              string  `json:"id"`
	TaskID          string  `json:"task_id"`
	DurationMinutes int     `json:"duration_minutes"`
	DurationSeconds int     `json:"duration_seconds"`
	Notes           *string `json:"notes"`
	SessionDate     string  `json:"session_date"`
}

// statsResponse は学習統計のAPIレスポンス。
type statsResponse struct {
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	TotalHours     float64 `json:"total_hours"`
	SessionsCount  int     `json:"sessions_count"`
}

// CreateSession は学習セッション記録を処理する。
// POST /api/study-sessions
func (h *StudyHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	input := study.CreateSessionInput{
		TaskID:          req.TaskID,
		DurationMinutes: req.DurationMinutes,
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
	}
	if req.SessionDate != nil && *req.SessionDate != "" {
		sessionDate, err := parseDate(*req.SessionDate)
		if err != nil {
			writeInvalidDateResponse(w, "session_date")
			return
		}
		input.SessionDate = &sessionDate
	}

	created, err := h.service.CreateSession(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordStudySessionRecorded(created.DurationSeconds)
	writeJSONResponse(w, http.StatusCreated, toSessionResponse(created))
}

// GetStats は学習統計を取得する。
// GET /api/stats
func (h *StudyHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	stats, err := h.service.GetStats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, statsResponse{
		TotalTasks:     stats.TotalTasks,
		CompletedTasks: stats.CompletedTasks,
		TotalHours:     stats.TotalHours,
		SessionsCount:  stats.SessionsCount,
	})
}

// toSessionResponse はドメインのStudySessionをレスポンス型に変換する。
func toSessionResponse(s *model.StudySession) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		TaskID:          s.TaskID,
		DurationMinutes: s.DurationMinutes,
		DurationSeconds: s.DurationSeconds,
		Notes:           s.Notes,
		SessionDate:     s.SessionDate.Format(time.RFC3339),
	}
}
