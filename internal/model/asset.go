package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Period names used by the statistics feed.
const (
	PeriodHour  = "HOUR"
	PeriodMonth = "MONTH"
)

// AssetStatistics is one pool entry of the liquidity pool statistics feed.
type AssetStatistics struct {
	Asset               string        `json:"asset"`
	AssetAddress        string        `json:"assetAddress"`
	IPTokenAssetAddress string        `json:"ipTokenAssetAddress"`
	Periods             []AssetPeriod `json:"periods"`
}

// AssetPeriod holds the time series reported for one period window.
type AssetPeriod struct {
	Period               string              `json:"period"`
	IPTokenReturnValue   decimal.Decimal     `json:"ipTokenReturnValue"`
	TotalLiquidity       []LiquidityPoint    `json:"totalLiquidity"`
	IPTokenExchangeRates []ExchangeRatePoint `json:"ipTokenExchangeRates"`
}

// LiquidityPoint is a total liquidity snapshot.
type LiquidityPoint struct {
	Timestamp      int64           `json:"timestamp"`
	TotalLiquidity decimal.Decimal `json:"totalLiquidity"`
}

// ExchangeRatePoint is an LP token to underlying exchange rate snapshot.
type ExchangeRatePoint struct {
	Timestamp    int64           `json:"timestamp"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
}

// Period returns the first period entry with the given name.
func (a AssetStatistics) Period(name string) (AssetPeriod, error) {
	for _, p := range a.Periods {
		if p.Period == name {
			return p, nil
		}
	}
	return AssetPeriod{}, fmt.Errorf("asset %s period %s: %w", a.Asset, name, ErrMalformedPayload)
}

// LastTotalLiquidity returns the most recent total liquidity snapshot.
func (p AssetPeriod) LastTotalLiquidity() (decimal.Decimal, error) {
	if len(p.TotalLiquidity) == 0 {
		return decimal.Zero, fmt.Errorf("period %s total liquidity empty: %w", p.Period, ErrMalformedPayload)
	}
	return p.TotalLiquidity[len(p.TotalLiquidity)-1].TotalLiquidity, nil
}

// LastExchangeRate returns the most recent LP token exchange rate.
func (p AssetPeriod) LastExchangeRate() (decimal.Decimal, error) {
	if len(p.IPTokenExchangeRates) == 0 {
		return decimal.Zero, fmt.Errorf("period %s exchange rates empty: %w", p.Period, ErrMalformedPayload)
	}
	return p.IPTokenExchangeRates[len(p.IPTokenExchangeRates)-1].ExchangeRate, nil
}
