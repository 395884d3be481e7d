package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GlobalIndicators is the liquidity mining reward state of one LP token.
type GlobalIndicators struct {
	LpToken                                common.Address
	AggregatedPowerUp                      *big.Int
	CompositeMultiplierInTheBlock          *big.Int
	CompositeMultiplierCumulativePrevBlock *big.Int
	BlockNumber                            uint32
	RewardsPerBlock                        uint32
	AccruedRewards                         *big.Int
}

// PowerUpModifier holds the per pool power-up curve parameters.
type PowerUpModifier struct {
	LpToken         common.Address
	PwTokenModifier *big.Int
	LogBase         *big.Int
	VectorOfCurve   *big.Int
}
