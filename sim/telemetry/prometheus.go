// Package telemetry exports engine metrics in the Prometheus exposition
// format. The CLI writes them to a textfile for node_exporter-style
// collection; nothing listens on a port.
package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/qestkit/qestkit/sim"
)

// ErrInvalidConfig is returned when the collector configuration is invalid.
var ErrInvalidConfig = errors.New("telemetry: invalid configuration")

// Config names the metric family prefix and histogram buckets.
type Config struct {
	Namespace string // required, e.g. "qestkit"
	Subsystem string // required, e.g. "engine"

	// GateBuckets are histogram buckets for per-gate wall time (seconds).
	GateBuckets []float64
	// SampleBuckets are histogram buckets for sampling wall time (seconds).
	SampleBuckets []float64
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		Namespace:     "qestkit",
		Subsystem:     "engine",
		GateBuckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 0.01, 0.1, 1, 10},
		SampleBuckets: []float64{1e-4, 1e-3, 0.01, 0.1, 1, 10},
	}
}

// Validate checks that required fields are set.
func (c Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace is required", ErrInvalidConfig)
	}
	if c.Subsystem == "" {
		return fmt.Errorf("%w: subsystem is required", ErrInvalidConfig)
	}
	if len(c.GateBuckets) == 0 || len(c.SampleBuckets) == 0 {
		return fmt.Errorf("%w: histogram buckets must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Collector implements sim.MetricsCollector on a private registry.
// Safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	gates        *prometheus.CounterVec
	gateDuration *prometheus.HistogramVec
	shots        prometheus.Counter
	measurements prometheus.Counter
	sampleTime   prometheus.Histogram
}

var _ sim.MetricsCollector = (*Collector)(nil)

// NewCollector registers the engine metric families on a fresh registry.
func NewCollector(cfg Config) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		gates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "gates_applied_total",
			Help:      "Gates applied, by gate name.",
		}, []string{"gate"}),
		gateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "gate_duration_seconds",
			Help:      "Time to build and apply one full operator, by gate width in qubits.",
			Buckets:   cfg.GateBuckets,
		}, []string{"qubits"}),
		shots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "shots_total",
			Help:      "Measurement shots drawn.",
		}),
		measurements: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "measurements_total",
			Help:      "Sampling passes over a final state.",
		}),
		sampleTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sample_duration_seconds",
			Help:      "Time to draw all shots of one measurement.",
			Buckets:   cfg.SampleBuckets,
		}),
	}, nil
}

func (c *Collector) RecordGate(gate string, qubits int, d time.Duration) {
	c.gates.WithLabelValues(gate).Inc()
	c.gateDuration.WithLabelValues(strconv.Itoa(qubits)).Observe(d.Seconds())
}

func (c *Collector) RecordSample(shots int, d time.Duration) {
	c.shots.Add(float64(shots))
	c.measurements.Inc()
	c.sampleTime.Observe(d.Seconds())
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteTextfile writes every registered family to path in the text
// exposition format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
