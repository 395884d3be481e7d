package mining

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// globalIndicatorsResult mirrors the getGlobalIndicators tuple layout so abi.ConvertType can fill it.
type globalIndicatorsResult struct {
	LpToken    common.Address
	Indicators globalRewardsIndicators
}

type globalRewardsIndicators struct {
	AggregatedPowerUp                      *big.Int
	CompositeMultiplierInTheBlock          *big.Int
	CompositeMultiplierCumulativePrevBlock *big.Int
	BlockNumber                            uint32
	RewardsPerBlock                        uint32
	AccruedRewards                         *big.Int
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil big int")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
