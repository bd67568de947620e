// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, path string, statusCode int)
	RecordHTTPLatency(duration time.Duration)
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordTaskCreated()
	RecordTaskCompleted()
	RecordStudySessionRecorded(durationSeconds int)
	RecordAchievementUnlocked()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests        *prometheus.CounterVec
	httpLatency         prometheus.Histogram
	loginSuccess        prometheus.Counter
	loginFail           prometheus.Counter
	tasksCreated        prometheus.Counter
	tasksCompleted      prometheus.Counter
	sessionsRecorded    prometheus.Counter
	studySecondsTotal   prometheus.Counter
	achievementUnlocked prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agendago_http_requests_total",
			Help: "メソッド・パス・ステータスコード別のリクエスト数",
		}, []string{"method", "path", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agendago_http_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_tasks_created_total",
			Help: "作成されたタスクの合計数",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_tasks_completed_total",
			Help: "完了に遷移したタスクの合計数",
		}),
		sessionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_study_sessions_total",
			Help: "記録された学習セッションの合計数",
		}),
		studySecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_study_seconds_total",
			Help: "記録された学習時間の合計（秒）",
		}),
		achievementUnlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agendago_achievements_unlocked_total",
			Help: "解除された実績の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.loginSuccess,
		c.loginFail,
		c.tasksCreated,
		c.tasksCompleted,
		c.sessionsRecorded,
		c.studySecondsTotal,
		c.achievementUnlocked,
	)

	return c
}

// RecordHTTPRequest はリクエストをメソッド・パス・ステータス別に記録する。
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordHTTPLatency(duration time.Duration) {
	c.httpLatency.Observe(duration.Seconds())
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordTaskCreated はタスク作成を記録する。
func (c *Collector) RecordTaskCreated() {
	c.tasksCreated.Inc()
}

// RecordTaskCompleted はタスクの完了遷移を記録する。
func (c *Collector) RecordTaskCompleted() {
	c.tasksCompleted.Inc()
}

// RecordStudySessionRecorded は学習セッションの記録と秒数を記録する。
func (c *Collector) RecordStudySessionRecorded(durationSeconds int) {
	c.sessionsRecorded.Inc()
	c.studySecondsTotal.Add(float64(durationSeconds))
}

// RecordAchievementUnlocked は実績の解除を記録する。
func (c *Collector) RecordAchievementUnlocked() {
	c.achievementUnlocked.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
