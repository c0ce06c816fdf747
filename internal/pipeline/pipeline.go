package pipeline

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/signalrun/internal/config"
	"github.com/sawpanic/signalrun/internal/data"
	"github.com/sawpanic/signalrun/internal/metrics"
	"github.com/sawpanic/signalrun/internal/report"
	"github.com/sawpanic/signalrun/internal/signal"
)

// Options carries the file paths for one run. MetricsPath is optional;
// the other three are required by the CLI.
type Options struct {
	ConfigPath  string
	InputPath   string
	OutputPath  string
	MetricsPath string
}

// Runner executes the batch pass end to end: config, dataset, compute,
// report. One Runner serves one run.
type Runner struct {
	opts Options
	reg  *metrics.Registry

	// rng is seeded from the validated config at the start of every
	// run; stages that sample draw from this handle, never from the
	// package-global source. No stage draws from it yet.
	rng *rand.Rand
}

// New builds a Runner over the given paths and metrics registry.
func New(opts Options, reg *metrics.Registry) *Runner {
	return &Runner{opts: opts, reg: reg}
}

// Run executes the full pass and always returns a report, never an
// error: every handled failure becomes the error payload. Exactly one
// report file is written per run regardless of outcome, and the exit
// code is 0 only for a persisted success report.
func (r *Runner) Run() report.Report {
	start := time.Now()
	log.Info().Msg("Job started")

	var final report.Report
	success, runErr := r.execute(start)
	if runErr != nil {
		log.Error().Msgf("Job failed: %s", runErr)
		final = r.failureReport(runErr)
	} else {
		final = success
	}

	step := r.reg.StartStep("report")
	if err := report.Write(r.opts.OutputPath, final); err != nil {
		step.Stop("error")
		log.Error().Err(err).Str("path", r.opts.OutputPath).Msg("Failed to persist report")
		if final.ExitCode() == 0 {
			log.Error().Msgf("Job failed: %s", err)
			final = r.failureReport(err)
			if werr := report.Write(r.opts.OutputPath, final); werr != nil {
				log.Error().Err(werr).Msg("Failed to persist error report")
			}
		}
	} else {
		step.Stop("success")
		if s, ok := final.(*report.Success); ok {
			log.Info().Msgf("Job completed successfully in %dms", s.LatencyMS)
		}
	}

	r.recordOutcome(final)
	if r.opts.MetricsPath != "" {
		if err := r.reg.WriteTextfile(r.opts.MetricsPath); err != nil {
			log.Warn().Err(err).Str("path", r.opts.MetricsPath).Msg("Failed to write metrics textfile")
		}
	}

	return final
}

// execute runs the pipeline stages in order and returns the success
// payload, or the first failure.
func (r *Runner) execute(start time.Time) (*report.Success, error) {
	step := r.reg.StartStep("config")
	cfg, err := config.Load(r.opts.ConfigPath)
	if err != nil {
		step.Stop("error")
		return nil, err
	}
	step.Stop("success")
	log.Info().Msgf("Config loaded: seed=%d, window=%d, version=%s", cfg.Seed, cfg.Window, cfg.Version)
	log.Info().Msg("Configuration verified")

	r.rng = rand.New(rand.NewSource(cfg.Seed))
	log.Debug().Int64("seed", cfg.Seed).Msg("Deterministic RNG seeded")

	step = r.reg.StartStep("dataset")
	ds, err := data.LoadCSV(r.opts.InputPath)
	if err != nil {
		step.Stop("error")
		return nil, err
	}
	if err := ds.Validate(signal.CloseColumn); err != nil {
		step.Stop("error")
		return nil, err
	}
	step.Stop("success")
	log.Info().Msgf("Data loaded: %d rows", len(ds.Rows))

	step = r.reg.StartStep("compute")
	res, err := signal.Compute(ds.Rows, cfg.Window)
	if err != nil {
		step.Stop("error")
		return nil, err
	}
	step.Stop("success")
	log.Info().Msgf("Rolling mean calculated with window=%d", cfg.Window)
	log.Info().Msg("Signals generated")

	value := report.Round4(res.Rate)
	r.reg.RowsProcessed.Set(float64(len(ds.Rows)))
	r.reg.SignalRate.Set(value)
	log.Info().Msgf("Metrics: signal_rate=%.4f, rows_processed=%d", value, len(ds.Rows))

	latency := time.Since(start).Milliseconds()
	return report.NewSuccess(cfg.Version, len(ds.Rows), res.Rate, latency, cfg.Seed), nil
}

// failureReport builds the error payload. The version is recovered
// from the config file when it still validates; otherwise the default
// stands in. Recovery never aborts the error path.
func (r *Runner) failureReport(cause error) *report.Error {
	return report.NewError(config.RecoverVersion(r.opts.ConfigPath), cause.Error())
}

// recordOutcome updates the run-level metric families once the final
// report shape is known.
func (r *Runner) recordOutcome(rep report.Report) {
	status := report.StatusError
	if rep.ExitCode() == 0 {
		status = report.StatusSuccess
	}
	r.reg.Runs.WithLabelValues(status).Inc()

	if s, ok := rep.(*report.Success); ok {
		r.reg.RunDuration.Set(float64(s.LatencyMS))
	}
}
