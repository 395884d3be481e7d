package yield

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"lpYield/internal/model"
)

// BlocksPerYear assumes a fixed 12 second block time on every network.
const BlocksPerYear = 365 * 24 * 3600 / 12

const (
	rewardsPerBlockDecimals = 8
	powerUpDecimals         = 18
)

var (
	// basePowerUp is the minimum power-up every depositor receives.
	basePowerUp = decimal.New(2, -1)
	// rewards shown assume a 50% early withdrawal fee.
	earlyWithdrawDivisor = decimal.NewFromInt(2)
	hundred              = decimal.NewFromInt(100)
	blocksPerYear        = decimal.NewFromInt(BlocksPerYear)
)

// RewardInputs are the values the reward APY formula depends on.
type RewardInputs struct {
	RewardsPerBlock   *big.Int
	AggregatedPowerUp *big.Int
	VectorOfCurve     *big.Int
	RewardTokenPrice  decimal.Decimal
	LpExchangeRate    decimal.Decimal
	UnderlyingPrice   decimal.Decimal
}

// RewardAPY returns the liquidity mining reward APY in percent:
//
//	(rewardsPerBlock/1e8) / (aggregatedPowerUp/1e18) * (0.2 + vectorOfCurve/1e18)
//	  * BlocksPerYear * rewardTokenPrice / lpExchangeRate / underlyingPrice / 2 * 100
func RewardAPY(in RewardInputs) (decimal.Decimal, error) {
	rewardsPerBlock := scaled(in.RewardsPerBlock, rewardsPerBlockDecimals)
	powerUp := scaled(in.AggregatedPowerUp, powerUpDecimals)
	vectorOfCurve := scaled(in.VectorOfCurve, powerUpDecimals)

	switch {
	case powerUp.IsZero():
		return decimal.Zero, fmt.Errorf("aggregated power up is zero: %w", model.ErrDivisionByZero)
	case in.LpExchangeRate.IsZero():
		return decimal.Zero, fmt.Errorf("lp token exchange rate is zero: %w", model.ErrDivisionByZero)
	case in.UnderlyingPrice.IsZero():
		return decimal.Zero, fmt.Errorf("underlying price is zero: %w", model.ErrDivisionByZero)
	}

	numerator := rewardsPerBlock.
		Mul(basePowerUp.Add(vectorOfCurve)).
		Mul(blocksPerYear).
		Mul(in.RewardTokenPrice).
		Mul(hundred)
	denominator := powerUp.
		Mul(in.LpExchangeRate).
		Mul(in.UnderlyingPrice).
		Mul(earlyWithdrawDivisor)

	return numerator.Div(denominator), nil
}

// TVLUSD returns the pool liquidity valued in USD.
func TVLUSD(lpBalance, underlyingPrice decimal.Decimal) decimal.Decimal {
	return lpBalance.Mul(underlyingPrice)
}

func scaled(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

func bigFromUint32(v uint32) *big.Int {
	return new(big.Int).SetUint64(uint64(v))
}
