package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/agendago/internal/achievement"
	"github.com/hitoshi/agendago/internal/auth"
	"github.com/hitoshi/agendago/internal/middleware"
	"github.com/hitoshi/agendago/internal/model"
)

// mockCategoryService は関数フィールドで挙動を差し替えられるCategoryServiceInterfaceのモック。
type mockCategoryService struct {
	listFunc   func(ctx context.Context, userID string) ([]*model.Category, error)
	createFunc func(ctx context.Context, userID, name, color string) (*model.Category, error)
}

func (m *mockCategoryService) ListCategories(ctx context.Context, userID string) ([]*model.Category, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryService) CreateCategory(ctx context.Context, userID, name, color string) (*model.Category, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, name, color)
	}
	return &model.Category{ID: "cat-1", Name: name, Color: color}, nil
}

// mockAchievementService は関数フィールドで挙動を差し替えられるAchievementServiceInterfaceのモック。
type mockAchievementService struct {
	listFunc func(ctx context.Context, userID string) ([]achievement.Status, error)
}

func (m *mockAchievementService) ListAchievements(ctx context.Context, userID string) ([]achievement.Status, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

// mockHealthChecker はHealthCheckerのモック。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

func newTestRouter(t *testing.T, health *mockHealthChecker) (http.Handler, string) {
	t.Helper()

	tm := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tm.Issue(&model.User{ID: "user-1", Username: "taro", Name: "山田太郎", Email: "taro@example.com"})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		TokenVerifier:     tm,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Metrics:           testMetrics(),
		HealthChecker:     health,

		AuthService:        &mockAuthService{},
		CategoryService:    &mockCategoryService{},
		TaskService:        &mockTaskService{},
		StudyService:       &mockStudyService{},
		AchievementService: &mockAchievementService{},
	})

	return router, token
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, &mockHealthChecker{})

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/categories"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/study-sessions"},
		{http.MethodGet, "/api/stats"},
		{http.MethodGet, "/api/achievements"},
	}

	for _, route := range protected {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401 without token", route.method, route.path, rec.Code)
		}
	}
}

func TestRouter_InvalidTokenForbidden(t *testing.T) {
	router, _ := newTestRouter(t, &mockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer garbage-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for invalid token", rec.Code)
	}
}

func TestRouter_AuthedRequestSucceeds(t *testing.T) {
	router, token := newTestRouter(t, &mockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.ID != "user-1" || resp.Username != "taro" {
		t.Errorf("response = %+v, want claims content", resp)
	}
}

func TestRouter_PublicAuthRoutes(t *testing.T) {
	router, _ := newTestRouter(t, &mockHealthChecker{})

	body := `{"username":"taro","name":"山田太郎","email":"taro@example.com","password":"secret1a"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 without token on /api/register", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	t.Run("DB疎通あり", func(t *testing.T) {
		router, _ := newTestRouter(t, &mockHealthChecker{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("DB疎通なし", func(t *testing.T) {
		router, _ := newTestRouter(t, &mockHealthChecker{err: errors.New("connection refused")})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router, _ := newTestRouter(t, &mockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want configured origin", got)
	}
}

func TestRouter_CategoriesAndAchievements(t *testing.T) {
	router, token := newTestRouter(t, &mockHealthChecker{})

	for _, path := range []string{"/api/categories", "/api/achievements"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, rec.Code)
		}
	}
}
