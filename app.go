package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TapTrack/tappy-stream/buildinfo"
	"github.com/TapTrack/tappy-stream/config"
	"github.com/TapTrack/tappy-stream/logging"
	"github.com/TapTrack/tappy-stream/tappy"
	"github.com/TapTrack/tappy-stream/transport"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	// persistent flags
	configPath  string
	logLevel    string
	logFormat   string
	metricsFile string
	baud        int

	exitCode int

	openTransport func(path string, opts transport.Options) (tappy.Transport, error)
	listPorts     func() ([]string, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:        stdout,
		stderr:        stderr,
		openTransport: transport.Open,
		listPorts:     transport.ListSerialPorts,
	}
}

// run executes args and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return tappy.ExitFailure
	}
	return a.exitCode
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           buildinfo.Name,
		Short:         buildinfo.Description,
		Version:       buildinfo.FullVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "structured log level (trace, debug, info, warn, error); logging is off when empty")
	flags.StringVar(&a.logFormat, "log-format", config.DefaultLogFormat, "structured log format: json or console")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write session counters to this file in Prometheus text format")
	flags.IntVar(&a.baud, "baud", config.DefaultBaudRate, "serial baud rate")

	root.AddCommand(a.streamCommand(), a.listPortsCommand(), a.versionCommand())
	return root
}

// loadConfig reads the config file, applies flags the user set and
// configures logging.
func (a *app) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = a.metricsFile
	}
	if flags.Changed("baud") {
		cfg.BaudRate = a.baud
	}
	return cfg, nil
}

func (a *app) applyConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return logging.Configure(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: a.stderr,
	})
}
