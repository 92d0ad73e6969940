// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ポーラー・ドレインワーカー・パイプラインから利用する。
type MetricsCollector interface {
	RecordPollSuccess(platform string)
	RecordPollFailure(platform string)
	RecordItemsFetched(platform string, count int)
	RecordPostCreated()
	RecordFilterRejected()
	RecordTransformFallback()
	RecordDispatchSuccess()
	RecordDispatchFailure()
	RecordDrainLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pollSuccess       *prometheus.CounterVec
	pollFail          *prometheus.CounterVec
	itemsFetched      *prometheus.CounterVec
	postsCreated      prometheus.Counter
	filterRejected    prometheus.Counter
	transformFallback prometheus.Counter
	dispatchSuccess   prometheus.Counter
	dispatchFail      prometheus.Counter
	drainLatency      prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pollSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_poll_success_total",
			Help: "ソース巡回成功の合計数",
		}, []string{"platform"}),
		pollFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_poll_fail_total",
			Help: "ソース巡回失敗の合計数",
		}, []string{"platform"}),
		itemsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_items_fetched_total",
			Help: "フェッチされたアイテムの合計数",
		}, []string{"platform"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		filterRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_filter_rejected_total",
			Help: "フィルタで除外されたアイテムの合計数",
		}),
		transformFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_transform_fallback_total",
			Help: "書き換え失敗により元コンテンツへフォールバックした合計数",
		}),
		dispatchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_dispatch_success_total",
			Help: "チャンネル配信成功の合計数",
		}),
		dispatchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_dispatch_fail_total",
			Help: "チャンネル配信失敗の合計数",
		}),
		drainLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_drain_latency_seconds",
			Help:    "1ドレインサイクルのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.pollSuccess,
		c.pollFail,
		c.itemsFetched,
		c.postsCreated,
		c.filterRejected,
		c.transformFallback,
		c.dispatchSuccess,
		c.dispatchFail,
		c.drainLatency,
	)

	return c
}

// RecordPollSuccess はソース巡回成功を記録する。
func (c *Collector) RecordPollSuccess(platform string) {
	c.pollSuccess.WithLabelValues(platform).Inc()
}

// RecordPollFailure はソース巡回失敗を記録する。
func (c *Collector) RecordPollFailure(platform string) {
	c.pollFail.WithLabelValues(platform).Inc()
}

// RecordItemsFetched はフェッチされたアイテム数を記録する。
func (c *Collector) RecordItemsFetched(platform string, count int) {
	c.itemsFetched.WithLabelValues(platform).Add(float64(count))
}

// RecordPostCreated は投稿作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordFilterRejected はフィルタによる除外を記録する。
func (c *Collector) RecordFilterRejected() {
	c.filterRejected.Inc()
}

// RecordTransformFallback は書き換えフォールバックを記録する。
func (c *Collector) RecordTransformFallback() {
	c.transformFallback.Inc()
}

// RecordDispatchSuccess はチャンネル配信成功を記録する。
func (c *Collector) RecordDispatchSuccess() {
	c.dispatchSuccess.Inc()
}

// RecordDispatchFailure はチャンネル配信失敗を記録する。
func (c *Collector) RecordDispatchFailure() {
	c.dispatchFail.Inc()
}

// RecordDrainLatency はドレインサイクルのレイテンシを記録する。
func (c *Collector) RecordDrainLatency(duration time.Duration) {
	c.drainLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
