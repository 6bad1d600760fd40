// Package metrics exposes relay cycle counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rss_relay"

// Metrics holds the relay's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	ArticlesFetched prometheus.Counter
	ArticlesSent    *prometheus.CounterVec
	ArticlesSkipped prometheus.Counter
	ArticlesFailed  prometheus.Counter
	RecordsPurged   prometheus.Counter

	Cycles        prometheus.Counter
	CycleDuration prometheus.Histogram
	LastCycle     prometheus.Gauge
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	m := &Metrics{registry: registry}

	m.ArticlesFetched = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_fetched_total",
		Help:      "Articles returned by feed fetching",
	})
	m.ArticlesSent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_sent_total",
		Help:      "Articles delivered to the channel, by delivery path",
	}, []string{"path"})
	m.ArticlesSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_skipped_total",
		Help:      "Articles skipped because they were already delivered",
	})
	m.ArticlesFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_failed_total",
		Help:      "Articles whose delivery failed",
	})
	m.RecordsPurged = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_purged_total",
		Help:      "Delivery records removed by retention cleanup",
	})

	m.Cycles = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Completed fetch and deliver cycles",
	})
	m.CycleDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one cycle, including send delays",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
	m.LastCycle = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_timestamp_seconds",
		Help:      "Unix time the last cycle finished",
	})

	return m
}

// ObserveCycle records the totals of one finished cycle.
func (m *Metrics) ObserveCycle(fetched, skipped, failed int, purged int64, duration time.Duration, finished time.Time) {
	m.ArticlesFetched.Add(float64(fetched))
	m.ArticlesSkipped.Add(float64(skipped))
	m.ArticlesFailed.Add(float64(failed))
	m.RecordsPurged.Add(float64(purged))
	m.Cycles.Inc()
	m.CycleDuration.Observe(duration.Seconds())
	m.LastCycle.Set(float64(finished.Unix()))
}

func (m *Metrics) ObserveSent(path string) {
	m.ArticlesSent.WithLabelValues(path).Inc()
}

// Handler serves the registry for /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
