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
// キャッシュ付きリポジトリ、上流APIクライアント、ワーカーから利用する。
type MetricsCollector interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordUpstreamStatus(source string, statusCode int)
	RecordUpstreamFailure(source string)
	RecordUpstreamLatency(source string, duration time.Duration)
	RecordRefreshSuccess(username string)
	RecordRefreshFailure(username string, reason string)
	RecordTasksPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHit        *prometheus.CounterVec
	cacheMiss       *prometheus.CounterVec
	upstreamStatus  *prometheus.CounterVec
	upstreamFail    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	refreshSuccess  prometheus.Counter
	refreshFail     *prometheus.CounterVec
	tasksPurged     prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikidash_cache_hit_total",
			Help: "キャッシュヒットの合計数",
		}, []string{"cache"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikidash_cache_miss_total",
			Help: "キャッシュミスの合計数",
		}, []string{"cache"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikidash_upstream_http_status_total",
			Help: "上流APIのHTTPステータスコード別レスポンス数",
		}, []string{"source", "status_code"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikidash_upstream_fail_total",
			Help: "上流API呼び出し失敗の合計数",
		}, []string{"source"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikidash_upstream_latency_seconds",
			Help:    "上流API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		refreshSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikidash_refresh_success_total",
			Help: "ダッシュボード事前更新成功の合計数",
		}),
		refreshFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikidash_refresh_fail_total",
			Help: "ダッシュボード事前更新失敗の合計数",
		}, []string{"reason"}),
		tasksPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikidash_tasks_purged_total",
			Help: "保持期間切れで削除された完了タスクの合計数",
		}),
	}

	reg.MustRegister(
		c.cacheHit,
		c.cacheMiss,
		c.upstreamStatus,
		c.upstreamFail,
		c.upstreamLatency,
		c.refreshSuccess,
		c.refreshFail,
		c.tasksPurged,
	)

	return c
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit(cache string) {
	c.cacheHit.WithLabelValues(cache).Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss(cache string) {
	c.cacheMiss.WithLabelValues(cache).Inc()
}

// RecordUpstreamStatus は上流APIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(source string, statusCode int) {
	c.upstreamStatus.WithLabelValues(source, strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamFailure は上流APIの呼び出し失敗を記録する。
func (c *Collector) RecordUpstreamFailure(source string) {
	c.upstreamFail.WithLabelValues(source).Inc()
}

// RecordUpstreamLatency は上流API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(source string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRefreshSuccess は事前更新の成功を記録する。
// ユーザー名はカーディナリティを抑えるためラベルにしない。
func (c *Collector) RecordRefreshSuccess(username string) {
	c.refreshSuccess.Inc()
}

// RecordRefreshFailure は事前更新の失敗を記録する。
func (c *Collector) RecordRefreshFailure(username string, reason string) {
	c.refreshFail.WithLabelValues(reason).Inc()
}

// RecordTasksPurged は削除された完了タスク数を記録する。
func (c *Collector) RecordTasksPurged(count int) {
	c.tasksPurged.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。
// メトリクスを必要としないテストや構成で使用する。
type Nop struct{}

var _ MetricsCollector = Nop{}

func (Nop) RecordCacheHit(string)                       {}
func (Nop) RecordCacheMiss(string)                      {}
func (Nop) RecordUpstreamStatus(string, int)            {}
func (Nop) RecordUpstreamFailure(string)                {}
func (Nop) RecordUpstreamLatency(string, time.Duration) {}
func (Nop) RecordRefreshSuccess(string)                 {}
func (Nop) RecordRefreshFailure(string, string)         {}
func (Nop) RecordTasksPurged(int)                       {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
