package report

import "math"

// Status values carried by the report payloads.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MetricName is the single summary metric this job produces.
const MetricName = "signal_rate"

// Report is the one payload a run persists, in exactly one of two
// shapes. ExitCode doubles as the process exit code for the run.
type Report interface {
	ExitCode() int
}

// Success is the payload of a completed run. Field order matches the
// serialized report.
type Success struct {
	Version       string  `json:"version"`
	RowsProcessed int     `json:"rows_processed"`
	Metric        string  `json:"metric"`
	Value         float64 `json:"value"`
	LatencyMS     int64   `json:"latency_ms"`
	Seed          int64   `json:"seed"`
	Status        string  `json:"status"`
}

// NewSuccess builds the success payload. The metric value is rounded
// to four decimals here and nowhere else.
func NewSuccess(version string, rowsProcessed int, rate float64, latencyMS int64, seed int64) *Success {
	return &Success{
		Version:       version,
		RowsProcessed: rowsProcessed,
		Metric:        MetricName,
		Value:         Round4(rate),
		LatencyMS:     latencyMS,
		Seed:          seed,
		Status:        StatusSuccess,
	}
}

// ExitCode implements Report.
func (s *Success) ExitCode() int {
	return 0
}

// Error is the payload of a failed run.
type Error struct {
	Version      string `json:"version"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// NewError builds the error payload from the recovered version and the
// failure message.
func NewError(version, message string) *Error {
	return &Error{
		Version:      version,
		Status:       StatusError,
		ErrorMessage: message,
	}
}

// ExitCode implements Report.
func (e *Error) ExitCode() int {
	return 1
}

// Round4 rounds half away from zero to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
