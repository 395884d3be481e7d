package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpYield/internal/config"
)

func runAPY(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

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

	logger.Info("apy start",
		zap.Int("networks", len(cfg.Networks)),
		zap.String("prices_url", cfg.PricesURL),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("isolate_networks", cfg.IsolateNetworks),
	)

	_, err = a.runOnce(ctx, time.Now())
	return err
}
