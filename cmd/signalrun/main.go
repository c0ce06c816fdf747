package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "SignalRun"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "signalrun",
		Short:   "Deterministic rolling-mean signal batch runner",
		Version: version,
		Long: `SignalRun computes a rolling-mean exceedance signal over the close
column of a CSV dataset and reduces it to a single signal_rate metric.

One invocation is one complete batch run: load and validate the config,
load and validate the dataset, compute the signals, persist exactly one
JSON report. Exit code 0 means a success report was written; any
handled failure writes an error report and exits 1.`,
	}

	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
