package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
)

const namespace = "swarm_homepage"

// Refresh results.
const (
	ResultSuccess   = "success"
	ResultStale     = "stale"
	ResultCoalesced = "coalesced"
)

// Collector owns the refresh metrics and the registry they live in.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	services        prometheus.Gauge
	sourceUsed      *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Refresh cycles by result.",
			},
			[]string{"result"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Duration of refresh cycles, both sources included.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		services: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "services",
				Help:      "Services in the published snapshot.",
			},
		),
		sourceUsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_used",
				Help:      "1 for the label source that fed the published snapshot.",
			},
			[]string{"source"},
		),
	}

	c.registry.MustRegister(
		c.refreshTotal,
		c.refreshDuration,
		c.services,
		c.sourceUsed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, r := range []string{ResultSuccess, ResultStale, ResultCoalesced} {
		c.refreshTotal.WithLabelValues(r)
	}
	return c
}

// ObserveCycle records a finished cycle and the snapshot readers now see.
func (c *Collector) ObserveCycle(published domain.Snapshot, stale bool, took time.Duration) {
	if c == nil {
		return
	}

	result := ResultSuccess
	if stale {
		result = ResultStale
	}
	c.refreshTotal.WithLabelValues(result).Inc()
	c.refreshDuration.Observe(took.Seconds())
	c.services.Set(float64(len(published.Services)))

	for _, k := range []domain.SourceKind{domain.SourcePrimary, domain.SourceFallback, domain.SourceNone} {
		v := 0.0
		if k == published.SourceUsed {
			v = 1
		}
		c.sourceUsed.WithLabelValues(string(k)).Set(v)
	}
}

// Coalesced counts a refresh request absorbed by a cycle already pending or running.
func (c *Collector) Coalesced() {
	if c == nil {
		return
	}
	c.refreshTotal.WithLabelValues(ResultCoalesced).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
