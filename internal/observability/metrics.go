package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RTECollector bundles Prometheus metrics for path tracing and radiative
// transfer integration and exposes them over HTTP.
type RTECollector struct {
	gatherer prometheus.Gatherer

	PathsTraced *prometheus.CounterVec
	PathPoints  prometheus.Histogram

	FrequenciesIntegrated *prometheus.CounterVec
	IntegrationDuration   *prometheus.HistogramVec
	Workers               prometheus.Gauge
}

// NewRTECollector registers metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil. Registering twice
// against the same registry reuses the existing collectors.
func NewRTECollector(reg prometheus.Registerer) (*RTECollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	paths, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paths_traced_total",
		Help: "Total number of traced propagation paths, labeled by far boundary.",
	}, []string{"boundary"}), "paths_traced_total")
	if err != nil {
		return nil, err
	}

	points, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "path_points",
		Help:    "Number of points per traced path.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}), "path_points")
	if err != nil {
		return nil, err
	}

	freqs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rte_frequencies_integrated_total",
		Help: "Total number of frequencies integrated, labeled by Stokes dimension.",
	}, []string{"stokes_dim"}), "rte_frequencies_integrated_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rte_integration_duration_seconds",
		Help:    "Wall time of one path integration over all frequencies.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stokes_dim"}), "rte_integration_duration_seconds")
	if err != nil {
		return nil, err
	}

	workers, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rte_workers",
		Help: "Number of frequency workers used by the last integration.",
	}), "rte_workers")
	if err != nil {
		return nil, err
	}

	return &RTECollector{
		gatherer:              gatherer,
		PathsTraced:           paths,
		PathPoints:            points,
		FrequenciesIntegrated: freqs,
		IntegrationDuration:   durations,
		Workers:               workers,
	}, nil
}

// ObservePath records one traced path.
func (c *RTECollector) ObservePath(boundary string, points int) {
	if c == nil {
		return
	}
	if c.PathsTraced != nil {
		c.PathsTraced.WithLabelValues(boundary).Inc()
	}
	if c.PathPoints != nil {
		c.PathPoints.Observe(float64(points))
	}
}

// ObserveIntegration records one integration of frequencies frequencies at
// Stokes dimension dim that took d using workers workers.
func (c *RTECollector) ObserveIntegration(dim, frequencies, workers int, d time.Duration) {
	if c == nil {
		return
	}
	label := strconv.Itoa(dim)
	if c.FrequenciesIntegrated != nil {
		c.FrequenciesIntegrated.WithLabelValues(label).Add(float64(frequencies))
	}
	if c.IntegrationDuration != nil {
		c.IntegrationDuration.WithLabelValues(label).Observe(d.Seconds())
	}
	if c.Workers != nil {
		c.Workers.Set(float64(workers))
	}
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *RTECollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RTECollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds col to reg, or returns the collector already registered
// under the same descriptor when its type matches.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
