package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Setup routes the global logger to stderr and to the run log file at
// once. The file writer always gets plain timestamped lines so the log
// stays greppable; the console gets color only on a real terminal.
// The returned closer releases the log file handle.
func Setup(logPath string) (func() error, error) {
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}
	fileOut := zerolog.ConsoleWriter{
		Out:        file,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(console, fileOut))

	return file.Close, nil
}

// NewRunID returns a short correlation id for one run, attached to
// every log line via the run-scoped logger.
func NewRunID() string {
	return strings.Split(uuid.New().String(), "-")[0]
}
