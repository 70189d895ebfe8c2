package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the report pipeline.
type Metrics struct {
	ReportsGenerated *prometheus.CounterVec
	ReportsFailed    *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	RecordsProcessed prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in main; tests use a fresh registry so
// parallel tests do not collide on collector names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vispulse_reports_generated_total",
			Help: "Reports generated, by input format.",
		}, []string{"format"}),
		ReportsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vispulse_reports_failed_total",
			Help: "Report generations that failed, by error stage.",
		}, []string{"stage"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vispulse_pipeline_duration_seconds",
			Help:    "Wall time of one full decode-to-report pipeline run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		RecordsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vispulse_records_processed_total",
			Help: "Input rows fed through normalization.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "vispulse_report_cache_hits_total",
			Help: "Report requests served from the in-memory cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "vispulse_report_cache_misses_total",
			Help: "Report requests that ran the full pipeline.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vispulse_http_requests_total",
			Help: "HTTP requests, by method, path and status class.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vispulse_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
