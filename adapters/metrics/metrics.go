// Package metrics provides Prometheus metrics collection for worldgen.
package metrics

import (
	"strconv"
	"time"

	"github.com/easyworld/worldgen/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "worldgen"

// Collector holds all Prometheus metrics for worldgen.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Oracle metrics
	OracleDuration *prometheus.HistogramVec
	OracleErrors   *prometheus.CounterVec

	// Pipeline metrics
	Generations        *prometheus.CounterVec
	ExtractionFailures prometheus.Counter
	FieldAdjustments   *prometheus.CounterVec
	RulesApplied       *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		OracleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "oracle_duration_seconds",
				Help:      "Oracle call duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"oracle", "status"},
		),
		OracleErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_errors_total",
				Help:      "Total number of failed oracle calls",
			},
			[]string{"oracle", "type"},
		),

		Generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of generation requests by outcome",
			},
			[]string{"outcome"},
		),
		ExtractionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_failures_total",
				Help:      "Total number of oracle replies without a usable JSON object",
			},
		),
		FieldAdjustments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_adjustments_total",
				Help:      "Total number of field values changed by the normaliser",
			},
			[]string{"module", "kind"},
		),
		RulesApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rules_applied_total",
				Help:      "Total number of consistency rules that changed a configuration",
			},
			[]string{"rule"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveOracle records an oracle call.
func (c *Collector) ObserveOracle(oracle string, d time.Duration, err error, timeout bool) {
	status := "ok"
	if err != nil {
		status = "error"
		kind := "error"
		if timeout {
			kind = "timeout"
		}
		c.OracleErrors.WithLabelValues(oracle, kind).Inc()
	}
	c.OracleDuration.WithLabelValues(oracle, status).Observe(d.Seconds())
}

// ObserveAdjustment records a normaliser adjustment.
func (c *Collector) ObserveAdjustment(module, kind string) {
	c.FieldAdjustments.WithLabelValues(module, kind).Inc()
}

// ObserveRule records an applied consistency rule.
func (c *Collector) ObserveRule(name string) {
	c.RulesApplied.WithLabelValues(name).Inc()
}

// ObserveGeneration records a request outcome.
func (c *Collector) ObserveGeneration(outcome ports.Outcome) {
	c.Generations.WithLabelValues(string(outcome)).Inc()
	if outcome == ports.OutcomeExtractionError {
		c.ExtractionFailures.Inc()
	}
}

// ConfigReloaded records a config reload attempt.
func (c *Collector) ConfigReloaded(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// StatusClass buckets an HTTP status into 2xx, 4xx, ... to bound cardinality.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}

// NormalizePath reduces cardinality of path labels.
func NormalizePath(path string) string {
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}

// Ensure interface compliance.
var _ ports.PipelineObserver = (*Collector)(nil)
