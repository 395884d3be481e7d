package yield

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lpYield/internal/chain"
	"lpYield/internal/model"
	"lpYield/internal/prices"
)

// Adaptor is the contract the yield aggregator expects from a protocol module.
type Adaptor interface {
	// TimeTravel reports whether the aggregator may request historical recomputation.
	TimeTravel() bool
	APY(ctx context.Context) ([]model.PoolYieldRecord, error)
}

// StatsFetcher loads pool statistics from a monitoring endpoint.
type StatsFetcher interface {
	FetchAssets(ctx context.Context, url string) ([]model.AssetStatistics, error)
}

// PriceFetcher loads current USD prices for network qualified token keys.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, keys []string) (prices.PriceMap, error)
}

// IndicatorReader reads liquidity mining state from a network.
type IndicatorReader interface {
	GlobalIndicators(ctx context.Context, contract common.Address, lpTokens []common.Address) (map[string]model.GlobalIndicators, error)
	PowerUpModifiers(ctx context.Context, contract common.Address, lpTokens []common.Address) (map[string]model.PowerUpModifier, error)
}

// Config controls the yield computation.
type Config struct {
	Project string
	AppURL  string
	// RewardPriceKey is the price key of the reward token on its home network.
	RewardPriceKey string
	Networks       []Network
	// IsolateNetworks drops a failing network instead of failing the whole call.
	IsolateNetworks bool
}

// Service computes pool yield records across all configured networks.
type Service struct {
	cfg     Config
	stats   StatsFetcher
	prices  PriceFetcher
	readers map[string]IndicatorReader
	logger  *zap.Logger
}

var _ Adaptor = (*Service)(nil)

// NewService builds a Service. readers is keyed by network name.
func NewService(cfg Config, stats StatsFetcher, priceFetcher PriceFetcher, readers map[string]IndicatorReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:     cfg,
		stats:   stats,
		prices:  priceFetcher,
		readers: readers,
		logger:  logger,
	}
}

// TimeTravel is always false: results only reflect current state.
func (s *Service) TimeTravel() bool {
	return false
}

// APY implements Adaptor.
func (s *Service) APY(ctx context.Context) ([]model.PoolYieldRecord, error) {
	return s.ComputeAPY(ctx)
}

type networkState struct {
	network Network
	assets  []model.AssetStatistics
	records []model.PoolYieldRecord
	err     error
}

// ComputeAPY fetches statistics, prices and on-chain indicators and returns one
// record per pool, networks in configured order.
func (s *Service) ComputeAPY(ctx context.Context) ([]model.PoolYieldRecord, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	states := make([]*networkState, len(s.cfg.Networks))
	for i, network := range s.cfg.Networks {
		states[i] = &networkState{network: network}
	}

	if err := s.loadStatistics(ctx, states); err != nil {
		return nil, err
	}
	if err := allFailed(states); err != nil {
		return nil, err
	}

	priceMap, err := s.prices.FetchPrices(ctx, priceKeys(states, s.cfg.RewardPriceKey))
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	rewardTokenPrice, err := priceMap.PriceByKey(s.cfg.RewardPriceKey)
	if err != nil {
		return nil, fmt.Errorf("reward token price: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, state := range states {
		state := state
		if state.err != nil {
			continue
		}
		g.Go(func() error {
			records, err := s.computeNetwork(gctx, state, priceMap, rewardTokenPrice)
			if err != nil {
				return s.networkFailed(state, err)
			}
			state.records = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := allFailed(states); err != nil {
		return nil, err
	}

	out := make([]model.PoolYieldRecord, 0)
	for _, state := range states {
		if state.err != nil {
			continue
		}
		out = append(out, state.records...)
		s.logger.Info("network yields computed",
			zap.String("network", state.network.Name),
			zap.Int("assets", len(state.assets)),
			zap.Int("records", len(state.records)),
		)
	}

	s.logger.Info("apy computed",
		zap.Int("records", len(out)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return out, nil
}

func (s *Service) validate() error {
	if s.stats == nil {
		return fmt.Errorf("stats fetcher is nil")
	}
	if s.prices == nil {
		return fmt.Errorf("price fetcher is nil")
	}
	if s.cfg.RewardPriceKey == "" {
		return fmt.Errorf("reward price key is required")
	}
	if len(s.cfg.Networks) == 0 {
		return fmt.Errorf("at least one network is required")
	}
	for _, network := range s.cfg.Networks {
		if s.readers[network.Name] == nil {
			return fmt.Errorf("no indicator reader for network %s", network.Name)
		}
	}
	return nil
}

func (s *Service) loadStatistics(ctx context.Context, states []*networkState) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, state := range states {
		state := state
		g.Go(func() error {
			assets, err := s.stats.FetchAssets(gctx, state.network.StatsURL)
			if err != nil {
				return s.networkFailed(state, fmt.Errorf("%s statistics: %w", state.network.Name, err))
			}
			state.assets = assets
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) computeNetwork(ctx context.Context, state *networkState, priceMap prices.PriceMap, rewardTokenPrice decimal.Decimal) ([]model.PoolYieldRecord, error) {
	network := state.network
	if len(state.assets) == 0 {
		return nil, nil
	}

	rawTokens := make([]string, 0, len(state.assets))
	for _, asset := range state.assets {
		rawTokens = append(rawTokens, asset.IPTokenAssetAddress)
	}
	lpTokens, err := chain.ParseAddresses(rawTokens)
	if err != nil {
		return nil, fmt.Errorf("%s lp tokens: %w: %w", network.Name, model.ErrMalformedPayload, err)
	}

	reader := s.readers[network.Name]
	indicators, err := reader.GlobalIndicators(ctx, network.MiningContract, lpTokens)
	if err != nil {
		return nil, fmt.Errorf("%s global indicators: %w", network.Name, err)
	}
	modifiers, err := reader.PowerUpModifiers(ctx, network.MiningContract, lpTokens)
	if err != nil {
		return nil, fmt.Errorf("%s power up modifiers: %w", network.Name, err)
	}

	return buildRecords(poolInputs{
		network:          network,
		project:          s.cfg.Project,
		appURL:           s.cfg.AppURL,
		assets:           state.assets,
		priceMap:         priceMap,
		rewardTokenPrice: rewardTokenPrice,
		indicators:       indicators,
		modifiers:        modifiers,
	})
}

// networkFailed records err on the network. In isolated mode the error is
// swallowed after logging so the remaining networks still complete.
func (s *Service) networkFailed(state *networkState, err error) error {
	state.err = err
	if !s.cfg.IsolateNetworks {
		return err
	}
	s.logger.Warn("network skipped",
		zap.String("network", state.network.Name),
		zap.String("error_class", model.ErrorClass(err)),
		zap.Error(err),
	)
	return nil
}

// allFailed returns the joined network errors when no network is left to
// compute. It only fires in isolated mode; otherwise the first failure aborts.
func allFailed(states []*networkState) error {
	errs := make([]error, 0, len(states))
	for _, state := range states {
		if state.err == nil {
			return nil
		}
		errs = append(errs, state.err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("all networks failed: %w", errors.Join(errs...))
}

// priceKeys lists the underlying asset of every loaded pool followed by the
// reward token key.
func priceKeys(states []*networkState, rewardPriceKey string) []string {
	keys := make([]string, 0)
	for _, state := range states {
		if state.err != nil {
			continue
		}
		for _, asset := range state.assets {
			keys = append(keys, prices.Key(state.network.Name, asset.AssetAddress))
		}
	}
	keys = append(keys, rewardPriceKey)
	return prices.NormalizeKeys(keys)
}
