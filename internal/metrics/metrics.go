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
// ミドルウェア、認証、ワーカーの各層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
	RecordTokenVerification(outcome string)
	RecordKeyFetch(outcome string)
	RecordViewRefresh(success bool, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpLatency       prometheus.Histogram
	tokenVerification *prometheus.CounterVec
	keyFetch          *prometheus.CounterVec
	viewRefresh       *prometheus.CounterVec
	viewRefreshTime   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matiq_http_requests_total",
			Help: "HTTPメソッド・ステータスコード別のリクエスト数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matiq_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tokenVerification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matiq_token_verifications_total",
			Help: "結果別のトークン検証数",
		}, []string{"outcome"}),
		keyFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matiq_jwks_fetches_total",
			Help: "結果別のJWKS取得数",
		}, []string{"outcome"}),
		viewRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matiq_view_refreshes_total",
			Help: "結果別のマテリアライズドビュー更新数",
		}, []string{"outcome"}),
		viewRefreshTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matiq_view_refresh_duration_seconds",
			Help:    "マテリアライズドビュー更新のレイテンシ（秒）",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.tokenVerification,
		c.keyFetch,
		c.viewRefresh,
		c.viewRefreshTime,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果とレイテンシを記録する。
// pathはカーディナリティ爆発を避けるためラベルに含めない。
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordTokenVerification はトークン検証の結果を記録する。
// outcomeはsuccess、expired、invalidのいずれか。
func (c *Collector) RecordTokenVerification(outcome string) {
	c.tokenVerification.WithLabelValues(outcome).Inc()
}

// RecordKeyFetch はJWKS取得の結果を記録する。
// outcomeはsuccessまたはfailure。
func (c *Collector) RecordKeyFetch(outcome string) {
	c.keyFetch.WithLabelValues(outcome).Inc()
}

// RecordViewRefresh はマテリアライズドビュー更新の結果とレイテンシを記録する。
func (c *Collector) RecordViewRefresh(success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.viewRefresh.WithLabelValues(outcome).Inc()
	c.viewRefreshTime.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
