package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestSetupMetricsRoute_ServesMetrics は/metricsエンドポイントがPrometheus形式で応答することを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTaskCreated()

	handler := SetupMetricsRoute(reg)
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("failed to request /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "agendago_tasks_created_total") {
		t.Error("/metrics output should contain agendago_tasks_created_total")
	}
}

// TestSetupMetricsRoute_NotFoundForOtherPaths は/metrics以外のパスが404になることを検証する。
func TestSetupMetricsRoute_NotFoundForOtherPaths(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	handler := SetupMetricsRoute(reg)
	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
