package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/agendago/internal/achievement"
	"github.com/hitoshi/agendago/internal/middleware"
)

// AchievementServiceInterface は実績ハンドラーが必要とするサービスインターフェース。
type AchievementServiceInterface interface {
	// ListAchievements は実績カタログ全件を進捗と解除状態付きで返す。
	ListAchievements(ctx context.Context, userID string) ([]achievement.Status, error)
}

// AchievementHandler は実績のHTTPハンドラー。
type AchievementHandler struct {
	service AchievementServiceInterface
}

// NewAchievementHandler はAchievementHandlerを生成する。
func NewAchievementHandler(service AchievementServiceInterface) *AchievementHandler {
	return &AchievementHandler{service: service}
}

// achievementResponse は実績1件のAPIレスポンス。
type achievementResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Type        string  `json:"type"`
	Threshold   float64 `json:"threshold"`
	Progress    float64 `json:"progress"`
	Unlocked    bool    `json:"unlocked"`
	UnlockedAt  *string `json:"unlocked_at"`
}

// ListAchievements は実績一覧を取得する。
// 進捗が閾値に達した実績の解除はこの呼び出しの中で行われる。
// GET /api/achievements
func (h *AchievementHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	statuses, err := h.service.ListAchievements(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]achievementResponse, len(statuses))
	for i, st := range statuses {
		resp := achievementResponse{
			ID:          st.ID,
			Name:        st.Name,
			Description: st.Description,
			Icon:        st.Icon,
			Type:        string(st.Type),
			Threshold:   st.Threshold,
			Progress:    st.Progress,
			Unlocked:    st.Unlocked,
		}
		if st.UnlockedAt != nil {
			u := st.UnlockedAt.Format(time.RFC3339)
			resp.UnlockedAt = &u
		}
		responses[i] = resp
	}

	writeJSONResponse(w, http.StatusOK, responses)
}
