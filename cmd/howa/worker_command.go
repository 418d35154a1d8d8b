package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xraph/howa/engine"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run worker loops until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger

			addr := cfg.MetricsAddr
			if cmd.Flags().Changed("metrics-addr") {
				addr = metricsAddr
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []engine.Option
			var metrics *metricsServer
			if strings.TrimSpace(addr) != "" {
				mp, handler, err := newMeterProvider()
				if err != nil {
					return err
				}
				defer func() { _ = mp.Shutdown(context.Background()) }()

				metrics, err = startMetricsServer(addr, handler, logger)
				if err != nil {
					return err
				}
				defer func() { _ = metrics.Shutdown(context.Background()) }()
				opts = append(opts, engine.WithMeterProvider(mp))
			}

			return ctx.withEngine(func(eng *engine.Engine) error {
				if err := eng.Start(runCtx); err != nil {
					return err
				}
				logger.Info("worker started",
					slog.Int("workers", cfg.Workers),
					slog.String("queue", cfg.QueueName),
					slog.String("redis", cfg.Redis.Addr),
				)

				<-runCtx.Done()
				logger.Info("shutting down")

				// runCtx is done; Stop applies Config.ShutdownTimeout.
				return eng.Stop(context.WithoutCancel(runCtx))
			}, opts...)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics_addr)")

	return cmd
}
