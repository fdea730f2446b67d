package middleware

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for update duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "statekit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for statekit stores.
type metrics struct {
	updatesTotal   *prometheus.CounterVec
	updateDuration prometheus.Histogram
	updateErrors   prometheus.Counter
	listeners      prometheus.Gauge
}

// globalMetrics is the singleton metrics instance, created on the first
// call to Prometheus(). Re-registering the same collectors would panic.
var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		updatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total dispatched updates by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		updateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_duration_seconds",
			Help:        "Update dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		updateErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_errors_total",
			Help:        "Total failed updates",
			ConstLabels: config.ConstLabels,
		}),

		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribed_listeners",
			Help:        "Listeners currently subscribed across instrumented stores",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that counts dispatched updates by outcome
// (committed, deduplicated, suppressed), observes dispatch duration, and
// counts failures.
//
// Metrics are registered once per process; options only take effect on
// the first call.
func Prometheus(opts ...MetricsOption) statekit.Middleware {
	globalMetricsOnce.Do(func() {
		config := defaultMetricsConfig()
		for _, opt := range opts {
			opt(&config)
		}
		globalMetrics = initMetrics(config)
	})
	m := globalMetrics

	return func(s *statekit.Store, next statekit.Apply) statekit.Apply {
		return func(update func(any) any) (statekit.Outcome, error) {
			start := time.Now()
			out, err := next(update)
			m.updateDuration.Observe(time.Since(start).Seconds())

			switch {
			case err != nil:
				m.updateErrors.Inc()
				m.updatesTotal.WithLabelValues("error").Inc()
			case out.Committed:
				m.updatesTotal.WithLabelValues("committed").Inc()
			case out.Suppressed:
				m.updatesTotal.WithLabelValues("suppressed").Inc()
			default:
				m.updatesTotal.WithLabelValues("deduplicated").Inc()
			}
			return out, err
		}
	}
}

// ListenerGauge is a statekit plugin that tracks the number of subscribed
// listeners on the instrumented store. Attach it alongside the Prometheus
// middleware:
//
//	e.Attach(middleware.NewListenerGauge())
type ListenerGauge struct{}

// NewListenerGauge creates the gauge plugin. Prometheus() must have been
// called first so the metrics exist.
func NewListenerGauge() *ListenerGauge {
	return &ListenerGauge{}
}

// Name implements statekit.Plugin.
func (g *ListenerGauge) Name() string { return "prometheus-listener-gauge" }

// OnSubscribe implements statekit.SubscribeObserver.
func (g *ListenerGauge) OnSubscribe(func(any)) func() {
	if globalMetrics == nil {
		return nil
	}
	globalMetrics.listeners.Inc()
	return func() { globalMetrics.listeners.Dec() }
}
