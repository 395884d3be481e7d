package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// A missing .env is fine; the environment may be set by the caller.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "yield",
		Short:        "Liquidity pool yield adaptor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	apyCmd := &cobra.Command{
		Use:   "apy",
		Short: "Compute pool yields once",
		RunE:  runAPY,
	}
	addCommonFlags(apyCmd.Flags())
	apyCmd.Flags().Duration("min-interval", 0, "skip the run when the last successful run is more recent")

	root.AddCommand(apyCmd)

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute pool yields on a cron schedule",
		RunE:  runSchedule,
	}
	addCommonFlags(scheduleCmd.Flags())
	scheduleCmd.Flags().String("schedule", "@every 1h", "cron spec (standard five fields or descriptors like @every 1h)")
	scheduleCmd.Flags().Duration("min-interval", 0, "minimum time between persisted runs")
	scheduleCmd.Flags().Bool("run-now", true, "run once immediately before waiting for the schedule")

	root.AddCommand(scheduleCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "RPC URLs per network (comma-separated name=url)")
	flags.StringSlice("networks", []string{"ethereum", "arbitrum"}, "enabled networks (comma-separated)")
	flags.String("prices-url", "", "price oracle base URL")
	flags.String("app-url", "", "app base URL used for pool links")
	flags.String("reward-network", "ethereum", "network whose reward token price is used for all pools")
	flags.Bool("isolate-networks", false, "skip a failing network instead of failing the run")
	flags.Duration("http-timeout", 30*time.Second, "timeout of each HTTP request")
	flags.Int("concurrency", 8, "maximum in-flight contract calls per network")
	flags.String("out", "", "output JSONL path (default: JSON array on stdout)")
	flags.String("pg-dsn", "", "Postgres DSN for persisting yields")
	flags.String("state-file", "", "optional local state file for the last run time")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
