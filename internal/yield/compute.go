package yield

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lpYield/internal/chain"
	"lpYield/internal/model"
	"lpYield/internal/prices"
)

// poolInputs groups everything joined for one network.
type poolInputs struct {
	network          Network
	project          string
	appURL           string
	assets           []model.AssetStatistics
	priceMap         prices.PriceMap
	rewardTokenPrice decimal.Decimal
	indicators       map[string]model.GlobalIndicators
	modifiers        map[string]model.PowerUpModifier
}

// buildRecords joins statistics, prices and indicators for every asset of a
// network. Any missing join key aborts the network.
func buildRecords(in poolInputs) ([]model.PoolYieldRecord, error) {
	records := make([]model.PoolYieldRecord, 0, len(in.assets))
	for _, asset := range in.assets {
		record, err := buildRecord(in, asset)
		if err != nil {
			return nil, fmt.Errorf("%s pool %s (%s): %w", in.network.Name, asset.Asset, asset.IPTokenAssetAddress, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func buildRecord(in poolInputs, asset model.AssetStatistics) (model.PoolYieldRecord, error) {
	month, err := asset.Period(model.PeriodMonth)
	if err != nil {
		return model.PoolYieldRecord{}, err
	}
	hour, err := asset.Period(model.PeriodHour)
	if err != nil {
		return model.PoolYieldRecord{}, err
	}
	lpBalance, err := hour.LastTotalLiquidity()
	if err != nil {
		return model.PoolYieldRecord{}, err
	}
	lpExchangeRate, err := hour.LastExchangeRate()
	if err != nil {
		return model.PoolYieldRecord{}, err
	}

	underlyingPrice, err := in.priceMap.Price(in.network.Name, asset.AssetAddress)
	if err != nil {
		return model.PoolYieldRecord{}, err
	}

	lpKey := chain.AddressKey(asset.IPTokenAssetAddress)
	indicators, ok := in.indicators[lpKey]
	if !ok {
		return model.PoolYieldRecord{}, fmt.Errorf("global indicators for %s: %w", lpKey, model.ErrMissingKey)
	}
	modifier, ok := in.modifiers[lpKey]
	if !ok {
		return model.PoolYieldRecord{}, fmt.Errorf("power up modifier for %s: %w", lpKey, model.ErrMissingKey)
	}

	apyReward, err := RewardAPY(RewardInputs{
		RewardsPerBlock:   bigFromUint32(indicators.RewardsPerBlock),
		AggregatedPowerUp: indicators.AggregatedPowerUp,
		VectorOfCurve:     modifier.VectorOfCurve,
		RewardTokenPrice:  in.rewardTokenPrice,
		LpExchangeRate:    lpExchangeRate,
		UnderlyingPrice:   underlyingPrice,
	})
	if err != nil {
		return model.PoolYieldRecord{}, err
	}

	return model.PoolYieldRecord{
		Pool:             in.network.PoolID(asset.IPTokenAssetAddress),
		Chain:            in.network.Chain,
		Project:          in.project,
		Symbol:           asset.Asset,
		TVLUSD:           TVLUSD(lpBalance, underlyingPrice).InexactFloat64(),
		APYBase:          month.IPTokenReturnValue.InexactFloat64(),
		APYReward:        apyReward.InexactFloat64(),
		UnderlyingTokens: []string{asset.AssetAddress},
		RewardTokens:     []string{in.network.RewardToken},
		URL:              in.network.PoolURL(in.appURL, asset.Asset),
	}, nil
}
