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
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordAssignSuccess(code string)
	RecordAssignFailure(reason string)
	RecordRelease(code string)
	RecordHTTPStatus(statusCode int)
	RecordAssignLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	assignSuccess prometheus.Counter
	assignFail    *prometheus.CounterVec
	releaseTotal  prometheus.Counter
	httpStatus    *prometheus.CounterVec
	assignLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		assignSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowpool_assign_success_total",
			Help: "フローアカウント割り当て成功の合計数",
		}),
		assignFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpool_assign_fail_total",
			Help: "フローアカウント割り当て失敗の理由別合計数",
		}, []string{"reason"}),
		releaseTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowpool_release_total",
			Help: "フローアカウント割り当て解除の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpool_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		assignLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowpool_assign_latency_seconds",
			Help:    "割り当て操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.assignSuccess,
		c.assignFail,
		c.releaseTotal,
		c.httpStatus,
		c.assignLatency,
	)

	return c
}

// RecordAssignSuccess は割り当て成功を記録する。
func (c *Collector) RecordAssignSuccess(code string) {
	c.assignSuccess.Inc()
}

// RecordAssignFailure は割り当て失敗を理由コード別に記録する。
func (c *Collector) RecordAssignFailure(reason string) {
	c.assignFail.WithLabelValues(reason).Inc()
}

// RecordRelease は割り当て解除を記録する。
func (c *Collector) RecordRelease(code string) {
	c.releaseTotal.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAssignLatency は割り当て操作のレイテンシを記録する。
func (c *Collector) RecordAssignLatency(duration time.Duration) {
	c.assignLatency.Observe(duration.Seconds())
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

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
