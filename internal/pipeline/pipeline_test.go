package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/signalrun/internal/metrics"
	"github.com/sawpanic/signalrun/internal/report"
)

const (
	validConfig = "seed: 42\nwindow: 3\nversion: v1\n"
	validCSV    = "date,close\n2025-01-01,10\n2025-01-02,20\n2025-01-03,15\n2025-01-04,30\n"
)

func newRun(t *testing.T) (string, Options) {
	t.Helper()
	dir := t.TempDir()
	return dir, Options{
		ConfigPath: filepath.Join(dir, "run.yaml"),
		InputPath:  filepath.Join(dir, "input.csv"),
		OutputPath: filepath.Join(dir, "out", "metrics.json"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func reportFromDisk(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err, "a report file must exist for every run")
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestRun_Success(t *testing.T) {
	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)

	rep := New(opts, metrics.NewRegistry()).Run()

	assert.Equal(t, 0, rep.ExitCode())
	payload := reportFromDisk(t, opts.OutputPath)
	assert.Len(t, payload, 7)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "v1", payload["version"])
	assert.Equal(t, "signal_rate", payload["metric"])
	assert.Equal(t, 0.5, payload["value"])
	assert.Equal(t, float64(4), payload["rows_processed"])
	assert.Equal(t, float64(42), payload["seed"])
	assert.GreaterOrEqual(t, payload["latency_ms"], float64(0))
}

func TestRun_SuccessPayloadMatchesReturnedReport(t *testing.T) {
	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)

	rep := New(opts, metrics.NewRegistry()).Run()

	success, ok := rep.(*report.Success)
	require.True(t, ok)
	assert.Equal(t, 4, success.RowsProcessed)
	assert.Equal(t, 0.5, success.Value)
	assert.Equal(t, int64(42), success.Seed)
	assert.GreaterOrEqual(t, success.LatencyMS, int64(0))
}

func TestRun_ConfigMissingUsesDefaultVersion(t *testing.T) {
	_, opts := newRun(t)
	writeFile(t, opts.InputPath, validCSV)

	rep := New(opts, metrics.NewRegistry()).Run()

	assert.Equal(t, 1, rep.ExitCode())
	payload := reportFromDisk(t, opts.OutputPath)
	assert.Len(t, payload, 3)
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, "v1", payload["version"])
	assert.Equal(t, "Configuration file not found: "+opts.ConfigPath, payload["error_message"])
}

func TestRun_ConfigTypeErrorUsesDefaultVersion(t *testing.T) {
	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, "seed: \"42\"\nwindow: 3\nversion: v9\n")
	writeFile(t, opts.InputPath, validCSV)

	rep := New(opts, metrics.NewRegistry()).Run()

	assert.Equal(t, 1, rep.ExitCode())
	payload := reportFromDisk(t, opts.OutputPath)
	assert.Equal(t, "Invalid configuration file structure: 'seed' must be an integer", payload["error_message"])
	assert.Equal(t, "v1", payload["version"], "an invalid config cannot lend its version")
}

func TestRun_DatasetFailureRecoversConfiguredVersion(t *testing.T) {
	tests := []struct {
		name        string
		csv         string
		skipInput   bool
		wantMessage string
	}{
		{
			name:        "input missing",
			skipInput:   true,
			wantMessage: "Input file not found: ",
		},
		{
			name:        "empty dataset",
			csv:         "date,close\n",
			wantMessage: "Empty input file",
		},
		{
			name:        "missing close column",
			csv:         "date,price\n2025-01-01,10\n",
			wantMessage: "Missing required columns in dataset: [close]",
		},
		{
			name:        "non-numeric close",
			csv:         "date,close\n2025-01-01,abc\n",
			wantMessage: `Invalid CSV file format: non-numeric 'close' value encountered: "abc"`,
		},
		{
			name:        "non UTF-8 input",
			csv:         "\xff\xfedate,close\n2025-01-01,10\n",
			wantMessage: "Invalid CSV file format: invalid UTF-8 encoding",
		},
		{
			name:        "ragged row",
			csv:         "date,close\n2025-01-01,10\n2025-01-02\n",
			wantMessage: "Invalid CSV file format: ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, opts := newRun(t)
			writeFile(t, opts.ConfigPath, "seed: 7\nwindow: 2\nversion: v7\n")
			if !tt.skipInput {
				writeFile(t, opts.InputPath, tt.csv)
			}

			rep := New(opts, metrics.NewRegistry()).Run()

			assert.Equal(t, 1, rep.ExitCode())
			payload := reportFromDisk(t, opts.OutputPath)
			assert.Equal(t, "error", payload["status"])
			assert.Equal(t, "v7", payload["version"], "version must come from the still-valid config")
			assert.Contains(t, payload["error_message"], tt.wantMessage)
		})
	}
}

func TestRun_WindowOneYieldsZeroRate(t *testing.T) {
	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, "seed: 42\nwindow: 1\nversion: v1\n")
	writeFile(t, opts.InputPath, validCSV)

	New(opts, metrics.NewRegistry()).Run()

	payload := reportFromDisk(t, opts.OutputPath)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, float64(0), payload["value"])
}

func TestRun_OversizedWindowStillSucceeds(t *testing.T) {
	// Any positive window passes validation; one far wider than the
	// dataset must still complete and report, not exhaust memory.
	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, "seed: 42\nwindow: 1125899906842624\nversion: v1\n")
	writeFile(t, opts.InputPath, validCSV)

	rep := New(opts, metrics.NewRegistry()).Run()

	assert.Equal(t, 0, rep.ExitCode())
	payload := reportFromDisk(t, opts.OutputPath)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, 0.5, payload["value"])
}

func TestRun_MetricsLogLineHasFourDecimalRate(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev }()
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)

	New(opts, metrics.NewRegistry()).Run()

	assert.Contains(t, buf.String(), "Metrics: signal_rate=0.5000, rows_processed=4")
}

func TestRun_CreatesNestedOutputDirectory(t *testing.T) {
	dir, opts := newRun(t)
	opts.OutputPath = filepath.Join(dir, "artifacts", "2026", "metrics.json")
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)

	rep := New(opts, metrics.NewRegistry()).Run()

	assert.Equal(t, 0, rep.ExitCode())
	_, err := os.Stat(opts.OutputPath)
	assert.NoError(t, err)
}

func TestRun_UnwritableOutputBecomesErrorReport(t *testing.T) {
	dir, opts := newRun(t)
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)
	// A plain file where the output directory should go blocks MkdirAll.
	writeFile(t, filepath.Join(dir, "out"), "blocker")

	rep := New(opts, metrics.NewRegistry()).Run()

	assert.Equal(t, 1, rep.ExitCode())
	errRep, ok := rep.(*report.Error)
	require.True(t, ok)
	assert.Contains(t, errRep.ErrorMessage, "failed to create output directory")
	assert.Equal(t, "v1", errRep.Version, "config is still valid, its version survives")
}

func TestRun_RecordsMetrics(t *testing.T) {
	_, opts := newRun(t)
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)
	reg := metrics.NewRegistry()

	New(opts, reg).Run()

	assert.Equal(t, 1.0, metrics.CounterValue(reg.Runs, "success"))
	assert.Zero(t, metrics.CounterValue(reg.Runs, "error"))
	assert.Equal(t, 4.0, metrics.GaugeValue(reg.RowsProcessed))
	assert.Equal(t, 0.5, metrics.GaugeValue(reg.SignalRate))
}

func TestRun_WritesMetricsTextfile(t *testing.T) {
	dir, opts := newRun(t)
	opts.MetricsPath = filepath.Join(dir, "textfile", "signalrun.prom")
	writeFile(t, opts.ConfigPath, validConfig)
	writeFile(t, opts.InputPath, validCSV)

	New(opts, metrics.NewRegistry()).Run()

	raw, err := os.ReadFile(opts.MetricsPath)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, `signalrun_runs_total{status="success"} 1`)
	assert.Contains(t, content, "signalrun_signal_rate 0.5")
	assert.Contains(t, content, `signalrun_step_duration_seconds_count{result="success",step="report"} 1`)
}

func TestRun_ErrorRunStillExportsMetrics(t *testing.T) {
	dir, opts := newRun(t)
	opts.MetricsPath = filepath.Join(dir, "signalrun.prom")
	writeFile(t, opts.InputPath, validCSV)

	New(opts, metrics.NewRegistry()).Run()

	raw, err := os.ReadFile(opts.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `signalrun_runs_total{status="error"} 1`)
}

func TestRun_Deterministic(t *testing.T) {
	_, first := newRun(t)
	writeFile(t, first.ConfigPath, validConfig)
	writeFile(t, first.InputPath, validCSV)
	_, second := newRun(t)
	writeFile(t, second.ConfigPath, validConfig)
	writeFile(t, second.InputPath, validCSV)

	New(first, metrics.NewRegistry()).Run()
	New(second, metrics.NewRegistry()).Run()

	a := reportFromDisk(t, first.OutputPath)
	b := reportFromDisk(t, second.OutputPath)
	assert.Equal(t, a["value"], b["value"])
	assert.Equal(t, a["rows_processed"], b["rows_processed"])
	assert.Equal(t, a["status"], b["status"])
}
