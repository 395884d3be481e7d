package yield

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lpYield/internal/chain"
	"lpYield/internal/model"
	"lpYield/internal/prices"
)

const (
	testRewardEthereum = "0x1e4746dc744503b53b4a082cb3607b169a289090"
	testRewardArbitrum = "0x34229b3f16fbcdfa8d8d9d17c0852f9496f4c7bb"

	testUSDT   = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	testLpUSDT = "0x9Bd2177027edEE300DC9F1fb88F24DB6e5e1edC6"
	testUSDM   = "0x59D9356E565Ab3A36dD77763Fc0d87fEaf85508C"
	testLpUSDM = "0x7A3c5B3F3C4Bd0b2D5bF1f0b0d8c2E9E1E9D9a1B"
	testWETH   = "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"
	testLpWETH = "0x1F9B6e3A0A3C9C1C5E1f5E4aC3E0F3c3D1dA1cA2"
)

var (
	testMiningEthereum = common.HexToAddress("0xCC3Fc4C9Ba7f8b8aA433Bc586D390A70560FF366")
	testMiningArbitrum = common.HexToAddress("0xdE645aB0560E5A413820234d9DDED5f4a55Ff6dd")
)

type fakeStats map[string][]model.AssetStatistics

func (f fakeStats) FetchAssets(_ context.Context, url string) ([]model.AssetStatistics, error) {
	assets, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("fetch statistics: %w", model.ErrUnexpectedStatus)
	}
	return assets, nil
}

type fakePrices struct {
	coins     prices.PriceMap
	requested []string
}

func (f *fakePrices) FetchPrices(_ context.Context, keys []string) (prices.PriceMap, error) {
	f.requested = keys
	return f.coins, nil
}

type fakeReader struct {
	indicators map[string]model.GlobalIndicators
	modifiers  map[string]model.PowerUpModifier
	err        error
}

func (f *fakeReader) GlobalIndicators(context.Context, common.Address, []common.Address) (map[string]model.GlobalIndicators, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.indicators, nil
}

func (f *fakeReader) PowerUpModifiers(context.Context, common.Address, []common.Address) (map[string]model.PowerUpModifier, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.modifiers, nil
}

func assetFixture(symbol, assetAddress, lpToken string, balance, rate, monthReturn string) model.AssetStatistics {
	return model.AssetStatistics{
		Asset:               symbol,
		AssetAddress:        assetAddress,
		IPTokenAssetAddress: lpToken,
		Periods: []model.AssetPeriod{
			{
				Period:             model.PeriodMonth,
				IPTokenReturnValue: decimal.RequireFromString(monthReturn),
			},
			{
				Period: model.PeriodHour,
				TotalLiquidity: []model.LiquidityPoint{
					{Timestamp: 1, TotalLiquidity: decimal.NewFromInt(1)},
					{Timestamp: 2, TotalLiquidity: decimal.RequireFromString(balance)},
				},
				IPTokenExchangeRates: []model.ExchangeRatePoint{
					{Timestamp: 1, ExchangeRate: decimal.NewFromInt(3)},
					{Timestamp: 2, ExchangeRate: decimal.RequireFromString(rate)},
				},
			},
		},
	}
}

func unitIndicators(lpToken string) model.GlobalIndicators {
	powerUp, _ := new(big.Int).SetString("1000000000000000000", 10)
	return model.GlobalIndicators{
		LpToken:           common.HexToAddress(lpToken),
		AggregatedPowerUp: powerUp,
		RewardsPerBlock:   100000000,
	}
}

func zeroModifier(lpToken string) model.PowerUpModifier {
	return model.PowerUpModifier{LpToken: common.HexToAddress(lpToken), VectorOfCurve: big.NewInt(0)}
}

func testNetworks() []Network {
	return []Network{
		{
			Name:           "ethereum",
			Chain:          "Ethereum",
			StatsURL:       "stats-1",
			MiningContract: testMiningEthereum,
			RewardToken:    testRewardEthereum,
		},
		{
			Name:           "arbitrum",
			Chain:          "Arbitrum",
			StatsURL:       "stats-42161",
			MiningContract: testMiningArbitrum,
			RewardToken:    testRewardArbitrum,
			DepositSymbols: []string{"USDM"},
		},
	}
}

type serviceFixture struct {
	stats   fakeStats
	prices  *fakePrices
	readers map[string]IndicatorReader
}

func newServiceFixture() serviceFixture {
	return serviceFixture{
		stats: fakeStats{
			"stats-1": {
				assetFixture("USDT", testUSDT, testLpUSDT, "1000", "1", "4.5"),
			},
			"stats-42161": {
				assetFixture("USDM", testUSDM, testLpUSDM, "200", "1", "6"),
				assetFixture("WETH", testWETH, testLpWETH, "3", "1", "2.25"),
			},
		},
		prices: &fakePrices{coins: prices.PriceMap{
			prices.Key("ethereum", testUSDT):           {Price: decimal.NewFromInt(1)},
			prices.Key("ethereum", testRewardEthereum): {Price: decimal.NewFromInt(1)},
			prices.Key("arbitrum", testUSDM):           {Price: decimal.NewFromInt(1)},
			prices.Key("arbitrum", testWETH):           {Price: decimal.NewFromInt(2000)},
		}},
		readers: map[string]IndicatorReader{
			"ethereum": &fakeReader{
				indicators: map[string]model.GlobalIndicators{chain.AddressKey(testLpUSDT): unitIndicators(testLpUSDT)},
				modifiers:  map[string]model.PowerUpModifier{chain.AddressKey(testLpUSDT): zeroModifier(testLpUSDT)},
			},
			"arbitrum": &fakeReader{
				indicators: map[string]model.GlobalIndicators{
					chain.AddressKey(testLpUSDM): unitIndicators(testLpUSDM),
					chain.AddressKey(testLpWETH): unitIndicators(testLpWETH),
				},
				modifiers: map[string]model.PowerUpModifier{
					chain.AddressKey(testLpUSDM): zeroModifier(testLpUSDM),
					chain.AddressKey(testLpWETH): zeroModifier(testLpWETH),
				},
			},
		},
	}
}

func (f serviceFixture) service(isolate bool) *Service {
	return NewService(Config{
		Project:         "ipor-derivatives",
		AppURL:          "https://app.ipor.io",
		RewardPriceKey:  prices.Key("ethereum", testRewardEthereum),
		Networks:        testNetworks(),
		IsolateNetworks: isolate,
	}, f.stats, f.prices, f.readers, zap.NewNop())
}

func TestServiceComputeAPY(t *testing.T) {
	fixture := newServiceFixture()
	svc := fixture.service(false)

	records, err := svc.ComputeAPY(context.Background())
	if err != nil {
		t.Fatalf("compute apy: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count mismatch: %d", len(records))
	}

	wantKeys := []string{
		"ethereum:0xdac17f958d2ee523a2206206994597c13d831ec7",
		"arbitrum:0x59d9356e565ab3a36dd77763fc0d87feaf85508c",
		"arbitrum:0x82af49447d8a07e3bd95bd0d56f35241523fbab1",
		"ethereum:0x1e4746dc744503b53b4a082cb3607b169a289090",
	}
	if !reflect.DeepEqual(fixture.prices.requested, wantKeys) {
		t.Fatalf("price keys mismatch: %+v", fixture.prices.requested)
	}

	usdt := records[0]
	want := model.PoolYieldRecord{
		Pool:             testLpUSDT + "-ethereum",
		Chain:            "Ethereum",
		Project:          "ipor-derivatives",
		Symbol:           "USDT",
		TVLUSD:           1000,
		APYBase:          4.5,
		APYReward:        0.2 * BlocksPerYear / 2 * 100,
		UnderlyingTokens: []string{testUSDT},
		RewardTokens:     []string{testRewardEthereum},
		URL:              "https://app.ipor.io/zap/ethereum/usdt",
	}
	if !reflect.DeepEqual(usdt, want) {
		t.Fatalf("usdt record mismatch: %+v != %+v", usdt, want)
	}

	usdm := records[1]
	if usdm.URL != "https://app.ipor.io/deposit/arbitrum/usdm" {
		t.Fatalf("usdm url mismatch: %s", usdm.URL)
	}
	if usdm.Chain != "Arbitrum" || usdm.Pool != testLpUSDM+"-arbitrum" {
		t.Fatalf("usdm record mismatch: %+v", usdm)
	}
	if !reflect.DeepEqual(usdm.RewardTokens, []string{testRewardArbitrum}) {
		t.Fatalf("usdm reward tokens mismatch: %+v", usdm.RewardTokens)
	}

	weth := records[2]
	if weth.URL != "https://app.ipor.io/zap/arbitrum/weth" {
		t.Fatalf("weth url mismatch: %s", weth.URL)
	}
	if weth.TVLUSD != 6000 {
		t.Fatalf("weth tvl mismatch: %v", weth.TVLUSD)
	}
	if weth.APYReward != 0.2*BlocksPerYear/2*100/2000 {
		t.Fatalf("weth reward apy mismatch: %v", weth.APYReward)
	}
}

func TestServiceTimeTravel(t *testing.T) {
	var adaptor Adaptor = newServiceFixture().service(false)
	if adaptor.TimeTravel() {
		t.Fatalf("time travel must be disabled")
	}
	records, err := adaptor.APY(context.Background())
	if err != nil {
		t.Fatalf("apy: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count mismatch: %d", len(records))
	}
}

func TestServiceMissingPrice(t *testing.T) {
	fixture := newServiceFixture()
	delete(fixture.prices.coins, prices.Key("arbitrum", testWETH))

	_, err := fixture.service(false).ComputeAPY(context.Background())
	if !prices.IsNotFound(err) {
		t.Fatalf("expected missing price, got %v", err)
	}
}

func TestServiceMissingRewardPrice(t *testing.T) {
	fixture := newServiceFixture()
	delete(fixture.prices.coins, prices.Key("ethereum", testRewardEthereum))

	_, err := fixture.service(true).ComputeAPY(context.Background())
	if !errors.Is(err, model.ErrMissingKey) {
		t.Fatalf("expected missing key, got %v", err)
	}
}

func TestServiceMissingIndicators(t *testing.T) {
	fixture := newServiceFixture()
	reader := fixture.readers["arbitrum"].(*fakeReader)
	delete(reader.indicators, chain.AddressKey(testLpWETH))

	_, err := fixture.service(false).ComputeAPY(context.Background())
	if !errors.Is(err, model.ErrMissingKey) {
		t.Fatalf("expected missing key, got %v", err)
	}
}

func TestServiceMissingModifier(t *testing.T) {
	fixture := newServiceFixture()
	reader := fixture.readers["ethereum"].(*fakeReader)
	delete(reader.modifiers, chain.AddressKey(testLpUSDT))

	_, err := fixture.service(false).ComputeAPY(context.Background())
	if !errors.Is(err, model.ErrMissingKey) {
		t.Fatalf("expected missing key, got %v", err)
	}
}

func TestServiceIsolateNetworks(t *testing.T) {
	fixture := newServiceFixture()
	fixture.readers["arbitrum"].(*fakeReader).err = fmt.Errorf("call getGlobalIndicators: %w", model.ErrNetwork)

	if _, err := fixture.service(false).ComputeAPY(context.Background()); !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("expected network error without isolation, got %v", err)
	}

	records, err := fixture.service(true).ComputeAPY(context.Background())
	if err != nil {
		t.Fatalf("isolated compute: %v", err)
	}
	if len(records) != 1 || records[0].Chain != "Ethereum" {
		t.Fatalf("expected only ethereum records, got %+v", records)
	}
}

func TestServiceIsolateStatisticsFailure(t *testing.T) {
	fixture := newServiceFixture()
	delete(fixture.stats, "stats-1")

	if _, err := fixture.service(false).ComputeAPY(context.Background()); !errors.Is(err, model.ErrUnexpectedStatus) {
		t.Fatalf("expected status error, got %v", err)
	}

	records, err := fixture.service(true).ComputeAPY(context.Background())
	if err != nil {
		t.Fatalf("isolated compute: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected arbitrum records only, got %d", len(records))
	}
	for _, key := range fixture.prices.requested {
		if key == prices.Key("ethereum", testUSDT) {
			t.Fatalf("skipped network assets must not be priced")
		}
	}
}

func TestServiceIsolateAllStatisticsFail(t *testing.T) {
	fixture := newServiceFixture()
	delete(fixture.stats, "stats-1")
	delete(fixture.stats, "stats-42161")

	records, err := fixture.service(true).ComputeAPY(context.Background())
	if !errors.Is(err, model.ErrUnexpectedStatus) {
		t.Fatalf("expected status error when every network fails, got records=%d err=%v", len(records), err)
	}
	if records != nil {
		t.Fatalf("expected no records, got %+v", records)
	}
	if fixture.prices.requested != nil {
		t.Fatalf("prices must not be fetched when no network is left: %v", fixture.prices.requested)
	}
}

func TestServiceIsolateAllReadsFail(t *testing.T) {
	fixture := newServiceFixture()
	fixture.readers["ethereum"].(*fakeReader).err = fmt.Errorf("call getGlobalIndicators: %w", model.ErrNetwork)
	fixture.readers["arbitrum"].(*fakeReader).err = fmt.Errorf("call getGlobalIndicators: %w", model.ErrMalformedPayload)

	_, err := fixture.service(true).ComputeAPY(context.Background())
	if !errors.Is(err, model.ErrNetwork) || !errors.Is(err, model.ErrMalformedPayload) {
		t.Fatalf("expected both network errors joined, got %v", err)
	}
}

func TestServiceMalformedLpToken(t *testing.T) {
	fixture := newServiceFixture()
	fixture.stats["stats-1"][0].IPTokenAssetAddress = "0x1234"

	_, err := fixture.service(false).ComputeAPY(context.Background())
	if !errors.Is(err, model.ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
}

func TestServiceValidate(t *testing.T) {
	fixture := newServiceFixture()
	delete(fixture.readers, "arbitrum")

	if _, err := fixture.service(false).ComputeAPY(context.Background()); err == nil {
		t.Fatalf("expected error for missing reader")
	}
}
