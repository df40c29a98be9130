package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TapTrack/tappy-stream/logging"
	"github.com/TapTrack/tappy-stream/metrics"
	"github.com/TapTrack/tappy-stream/tappy"
	"github.com/TapTrack/tappy-stream/transport"
)

func (a *app) streamCommand() *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:     "stream-tags <path>",
		Aliases: []string{"stream"},
		Short:   "Stream tags until the reader's scan timeout",
		Long: `Connects to the Tappy at <path> and prints every tag it scans.

<path> is a serial device (/dev/ttyACM0, COM3), a WebSocket bridge URL
(ws://host:port/ws) or mdns:[instance] to find a bridge on the local network.
A timeout of 0 streams until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if len(args) == 1 {
				cfg.Device = args[0]
			}
			if cfg.Device == "" {
				return errors.New("a device path is required")
			}
			if err := a.applyConfig(cfg); err != nil {
				return err
			}

			tr, err := a.openTransport(cfg.Device, transport.Options{
				BaudRate:         cfg.BaudRate,
				DiscoveryTimeout: cfg.DiscoveryTimeout,
			})
			if err != nil {
				return err
			}

			recorder := metrics.NewRecorder()
			session := tappy.NewSession(tappy.SessionConfig{
				Transport: tr,
				Observer:  recorder,
				Stdout:    a.stdout,
				Stderr:    a.stderr,
			})
			a.exitCode = session.Run(cmd.Context(), tappy.NewCommand(cfg.Timeout))

			if cfg.MetricsFile != "" {
				if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
					logger := logging.WithComponent("cli")
					logger.Warn().Err(err).Msg("metrics not written")
					fmt.Fprintln(a.stderr, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "seconds the reader scans before reporting a timeout (0-255, 0 = no timeout)")
	return cmd
}
