package mining

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	methodGlobalIndicators = "getGlobalIndicators"
	methodPowerUpModifiers = "getPoolPowerUpModifiers"
)

const liquidityMiningABIJSON = `[
  {
    "inputs": [
      {"internalType": "address[]", "name": "lpTokens", "type": "address[]"}
    ],
    "name": "getGlobalIndicators",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "lpToken", "type": "address"},
          {
            "components": [
              {"internalType": "uint256", "name": "aggregatedPowerUp", "type": "uint256"},
              {"internalType": "uint128", "name": "compositeMultiplierInTheBlock", "type": "uint128"},
              {"internalType": "uint128", "name": "compositeMultiplierCumulativePrevBlock", "type": "uint128"},
              {"internalType": "uint32", "name": "blockNumber", "type": "uint32"},
              {"internalType": "uint32", "name": "rewardsPerBlock", "type": "uint32"},
              {"internalType": "uint88", "name": "accruedRewards", "type": "uint88"}
            ],
            "internalType": "struct LiquidityMiningTypes.GlobalRewardsIndicators",
            "name": "indicators",
            "type": "tuple"
          }
        ],
        "internalType": "struct LiquidityMiningTypes.GlobalIndicatorsResult[]",
        "name": "",
        "type": "tuple[]"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "lpToken", "type": "address"}
    ],
    "name": "getPoolPowerUpModifiers",
    "outputs": [
      {"internalType": "uint256", "name": "pwTokenModifier", "type": "uint256"},
      {"internalType": "uint256", "name": "logBase", "type": "uint256"},
      {"internalType": "uint256", "name": "vectorOfCurve", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	liquidityMiningABI     abi.ABI
	liquidityMiningABIOnce sync.Once
	liquidityMiningABIErr  error
)

// LiquidityMiningABI returns the parsed liquidity mining contract ABI.
func LiquidityMiningABI() (abi.ABI, error) {
	liquidityMiningABIOnce.Do(func() {
		liquidityMiningABI, liquidityMiningABIErr = abi.JSON(strings.NewReader(liquidityMiningABIJSON))
	})
	return liquidityMiningABI, liquidityMiningABIErr
}
