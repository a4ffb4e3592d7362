package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_parcels_requests_total",
		Help: "Total number of /parcels requests",
	})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "apollo_parcels_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	SummaryRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_summary_requests_total",
		Help: "Total summary-tier responses",
	})
	DetailRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_detail_requests_total",
		Help: "Total detail-tier responses",
	})
	NotFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_detail_not_found_total",
		Help: "Total detail lookups with no matching parcel",
	})
	StoreErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_store_errors_total",
		Help: "Total store-layer failures surfaced as data-unavailable",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_redis_hits_total",
		Help: "Total redis summary-cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apollo_redis_misses_total",
		Help: "Total redis summary-cache misses",
	})
	SummaryFeatures = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "apollo_summary_features",
		Help:    "Feature count per summary response",
		Buckets: []float64{10, 50, 100, 250, 500, 750, 1000},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(SummaryRequestsTotal)
	prometheus.MustRegister(DetailRequestsTotal)
	prometheus.MustRegister(NotFoundTotal)
	prometheus.MustRegister(StoreErrorsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(SummaryFeatures)
}

// 文档注释：返回 Prometheus 指标处理器
// 背景：统一把注册指标暴露到 /metrics 路径，由主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
