package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sawpanic/signalrun/internal/metrics"
	"github.com/sawpanic/signalrun/internal/pipeline"
	"github.com/sawpanic/signalrun/internal/report"
	"github.com/sawpanic/signalrun/internal/runlog"
)

// newRunCmd builds the run subcommand, the single batch entrypoint.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one batch signal computation",
		Long:  "Loads the run config and CSV dataset, computes the rolling-mean signal rate, and writes the JSON metrics report.",
		RunE:  runJob,
	}

	bindRunFlags(runCmd.Flags())
	for _, name := range []string{"input", "config", "output", "log-file"} {
		_ = runCmd.MarkFlagRequired(name)
	}

	return runCmd
}

// bindRunFlags declares the run flags. The first four are required;
// metrics-file enables the optional Prometheus textfile export.
func bindRunFlags(fs *pflag.FlagSet) {
	fs.String("input", "", "Path to the input CSV dataset")
	fs.String("config", "", "Path to the run config file")
	fs.String("output", "", "Path for the JSON metrics report")
	fs.String("log-file", "", "Path for the operational log file")
	fs.String("metrics-file", "", "Optional path for a Prometheus textfile export")
}

func runJob(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	configPath, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")
	logFile, _ := cmd.Flags().GetString("log-file")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	closeLog, err := runlog.Setup(logFile)
	if err != nil {
		return err
	}
	log.Logger = log.Logger.With().Str("run_id", runlog.NewRunID()).Logger()

	rep := pipeline.New(pipeline.Options{
		ConfigPath:  configPath,
		InputPath:   input,
		OutputPath:  output,
		MetricsPath: metricsFile,
	}, metrics.NewRegistry()).Run()

	// Success payloads echo to stdout, error payloads to stderr, so
	// shell pipelines can capture the metric without log noise.
	stream := cmd.OutOrStdout()
	if rep.ExitCode() != 0 {
		stream = cmd.ErrOrStderr()
	}
	if err := report.Echo(stream, rep); err != nil {
		log.Warn().Err(err).Msg("Failed to echo report")
	}

	if err := closeLog(); err != nil {
		log.Warn().Err(err).Msg("Failed to close log file")
	}

	if code := rep.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}
