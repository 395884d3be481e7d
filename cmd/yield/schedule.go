package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpYield/internal/config"
)

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	runNow, _ := cmd.Flags().GetBool("run-now")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdout, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	run := func() {
		if _, err := a.runOnce(ctx, time.Now()); err != nil && ctx.Err() == nil {
			logger.Warn("scheduled run failed", zap.Error(err))
		}
	}

	// SkipIfStillRunning keeps a slow run from overlapping the next tick.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.Schedule, run); err != nil {
		return err
	}

	logger.Info("schedule start",
		zap.String("schedule", cfg.Schedule),
		zap.Int("networks", len(cfg.Networks)),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Duration("min_interval", cfg.MinInterval),
	)

	if runNow {
		run()
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	logger.Info("schedule stopped")
	return nil
}
