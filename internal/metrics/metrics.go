// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン試行の結果ラベル
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginLocked  = "locked"
	LoginError   = "error"
)

// プロジェクト更新操作のラベル
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// 問い合わせ送信の結果ラベル
const (
	ContactSent    = "sent"
	ContactInvalid = "invalid"
	ContactFailed  = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやハンドラーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordLoginAttempt(result string)
	RecordProjectMutation(op string)
	RecordContactMessage(result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	loginAttempts    *prometheus.CounterVec
	projectMutations *prometheus.CounterVec
	contactMessages  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_login_attempts_total",
			Help: "結果別の管理者ログイン試行数",
		}, []string{"result"}),
		projectMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_project_mutations_total",
			Help: "操作別のプロジェクト更新数",
		}, []string{"op"}),
		contactMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_contact_messages_total",
			Help: "結果別の問い合わせ数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.loginAttempts,
		c.projectMutations,
		c.contactMessages,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordLoginAttempt はログイン試行を結果別に記録する。
func (c *Collector) RecordLoginAttempt(result string) {
	c.loginAttempts.WithLabelValues(result).Inc()
}

// RecordProjectMutation はプロジェクトの作成・更新・削除を記録する。
func (c *Collector) RecordProjectMutation(op string) {
	c.projectMutations.WithLabelValues(op).Inc()
}

// RecordContactMessage は問い合わせの処理結果を記録する。
func (c *Collector) RecordContactMessage(result string) {
	c.contactMessages.WithLabelValues(result).Inc()
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, int, time.Duration) {}
func (NopCollector) RecordLoginAttempt(string)                    {}
func (NopCollector) RecordProjectMutation(string)                 {}
func (NopCollector) RecordContactMessage(string)                  {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
