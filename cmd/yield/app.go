package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"lpYield/internal/chain"
	"lpYield/internal/config"
	"lpYield/internal/mining"
	"lpYield/internal/model"
	"lpYield/internal/prices"
	"lpYield/internal/runstate"
	"lpYield/internal/stats"
	"lpYield/internal/storage"
	"lpYield/internal/storage/postgres"
	"lpYield/internal/yield"
)

const stateName = "yield:apy"

// app holds the wired components of one process.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	service *yield.Service
	clients []*chain.Client
	store   *postgres.Store
	sinks   []storage.Storage
	state   runstate.StateStore
	stdout  io.Writer
}

func newApp(ctx context.Context, cfg config.Config, stdout io.Writer, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, stdout: stdout}

	networks := make([]yield.Network, 0, len(cfg.Networks))
	readers := make(map[string]yield.IndicatorReader, len(cfg.Networks))
	for _, nc := range cfg.Networks {
		contract, err := chain.ParseAddress(nc.MiningContract)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("network %s mining contract: %w", nc.Name, err)
		}
		client, err := chain.Dial(ctx, nc.Name, nc.RPCURL, nc.ChainID)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.clients = append(a.clients, client)

		readers[nc.Name] = mining.NewReader(client, cfg.Concurrency, logger.With(zap.String("network", nc.Name)))
		networks = append(networks, yield.Network{
			Name:           nc.Name,
			Chain:          nc.Chain,
			ChainID:        nc.ChainID,
			StatsURL:       nc.StatsURL,
			MiningContract: contract,
			RewardToken:    chain.AddressKey(nc.RewardToken),
			DepositSymbols: nc.DepositSymbols,
		})
	}

	rewardNetwork, _ := cfg.Network(cfg.RewardNetwork)
	a.service = yield.NewService(yield.Config{
		Project:         cfg.Project,
		AppURL:          cfg.AppURL,
		RewardPriceKey:  prices.Key(rewardNetwork.Name, rewardNetwork.RewardToken),
		Networks:        networks,
		IsolateNetworks: cfg.IsolateNetworks,
	},
		stats.NewClient(cfg.HTTPTimeout, logger),
		prices.NewClient(cfg.PricesURL, cfg.HTTPTimeout, logger),
		readers,
		logger,
	)

	if cfg.Out != "" {
		a.sinks = append(a.sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.store = store
		a.sinks = append(a.sinks, store)
	}

	switch {
	case cfg.StateFile != "":
		a.state = &runstate.FileStateStore{Path: cfg.StateFile}
	case a.store != nil:
		a.state = &runstate.DBStateStore{Store: a.store, Name: stateName}
	}

	return a, nil
}

func (a *app) Close() {
	for _, client := range a.clients {
		client.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// runOnce computes yields and hands them to every sink. It reports false when
// the run was skipped because the last run is within the minimum interval.
func (a *app) runOnce(ctx context.Context, now time.Time) (bool, error) {
	due, err := runstate.Due(ctx, a.state, now, a.cfg.MinInterval)
	if err != nil {
		return false, fmt.Errorf("load run state: %w", err)
	}
	if !due {
		a.logger.Info("run skipped, last run within min interval",
			zap.Duration("min_interval", a.cfg.MinInterval),
		)
		return false, nil
	}

	records, err := a.service.APY(ctx)
	if err != nil {
		a.logger.Error("apy failed",
			zap.String("error_class", model.ErrorClass(err)),
			zap.Error(err),
		)
		return false, err
	}

	if a.cfg.Out == "" {
		if err := writeJSON(a.stdout, records); err != nil {
			return false, err
		}
	}
	for _, sink := range a.sinks {
		if err := sink.PutYieldBatch(ctx, now, records); err != nil {
			return false, fmt.Errorf("persist yields: %w", err)
		}
	}

	if a.state != nil {
		if err := a.state.Save(ctx, uint64(now.Unix())); err != nil {
			return false, fmt.Errorf("save run state: %w", err)
		}
	}
	return true, nil
}

func writeJSON(w io.Writer, records []model.PoolYieldRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode yields: %w", err)
	}
	return nil
}
