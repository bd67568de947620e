package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(generalBurst, authBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0), // テスト中に補充されない程度に遅く
		GeneralBurst:    generalBurst,
		AuthRate:        rate.Limit(1.0 / 60.0),
		AuthBurst:       authBurst,
		CleanupInterval: time.Hour,
	}
}

func TestRateLimiter_GeneralMiddleware(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// バースト分は通る
	for i := 0; i < 3; i++ {
		if code := doRequest("user-1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	// バーストを超えると429
	if code := doRequest("user-1"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 after burst exhausted", code)
	}
	// 別ユーザーは独立に制限される
	if code := doRequest("user-2"); code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a different user", code)
	}
}

func TestRateLimiter_GeneralMiddleware_RequiresUserID(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without user ID in context")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRateLimiter_AuthEndpointMiddleware_PerIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 2))
	defer rl.Stop()

	handler := rl.AuthEndpointMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := doRequest("192.0.2.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := doRequest("192.0.2.1:5678") // 同一IP、別ポート
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 for same IP", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After header")
	}
	// 別IPは独立に制限される
	if rec := doRequest("192.0.2.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a different IP", rec.Code)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: time.Millisecond,
	})
	defer rl.Stop()

	rl.getOrCreate(&rl.generalMu, rl.generalLimiters, "user-1", 1, 1)
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("limiter count = %d, want 1", rl.GeneralLimiterCount())
	}

	// TTL（CleanupInterval*2）経過後にクリーンアップされる
	time.Sleep(20 * time.Millisecond)
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("limiter count = %d, want 0 after cleanup", rl.GeneralLimiterCount())
	}
}
