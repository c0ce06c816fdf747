package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// Registry bundles the run metrics behind a dedicated Prometheus
// registry so a textfile export contains only signalrun families, not
// process or Go runtime noise.
type Registry struct {
	reg *prometheus.Registry

	Runs          *prometheus.CounterVec
	RowsProcessed prometheus.Gauge
	SignalRate    prometheus.Gauge
	RunDuration   prometheus.Gauge
	StepDuration  *prometheus.HistogramVec
}

// NewRegistry creates the registry with all signalrun metrics
// registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalrun_runs_total",
				Help: "Total runs by final status",
			},
			[]string{"status"},
		),

		RowsProcessed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalrun_rows_processed",
				Help: "Rows processed by the last run",
			},
		),

		SignalRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalrun_signal_rate",
				Help: "Signal rate reported by the last run",
			},
		),

		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalrun_run_duration_ms",
				Help: "Wall-clock duration of the last run in milliseconds",
			},
		),

		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalrun_step_duration_seconds",
				Help:    "Duration of each pipeline step in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"step", "result"},
		),
	}

	r.reg.MustRegister(
		r.Runs,
		r.RowsProcessed,
		r.SignalRate,
		r.RunDuration,
		r.StepDuration,
	)

	return r
}

// WriteTextfile exports the registry in the node-exporter
// textfile-collector format, creating parent directories as needed.
func (r *Registry) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

// StepTimer tracks execution time for one pipeline step.
type StepTimer struct {
	reg   *Registry
	step  string
	start time.Time
}

// StartStep begins timing a named pipeline step.
func (r *Registry) StartStep(step string) *StepTimer {
	return &StepTimer{
		reg:   r,
		step:  step,
		start: time.Now(),
	}
}

// Stop completes the step timing and records it with the outcome.
func (st *StepTimer) Stop(result string) {
	duration := time.Since(st.start)
	st.reg.StepDuration.WithLabelValues(st.step, result).Observe(duration.Seconds())

	log.Debug().
		Str("step", st.step).
		Str("result", result).
		Dur("duration", duration).
		Msg("Pipeline step completed")
}

// GaugeValue reads the current value of a gauge, for logs and tests.
func GaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// CounterValue reads one labeled child of a counter vector, for tests.
func CounterValue(vec *prometheus.CounterVec, labels ...string) float64 {
	child, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := child.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
