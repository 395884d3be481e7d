package yield

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network describes one chain the protocol is deployed on.
type Network struct {
	// Name is the lower-case network identifier used in price keys, pool ids and URLs.
	Name string
	// Chain is the display name emitted in records.
	Chain          string
	ChainID        uint64
	StatsURL       string
	MiningContract common.Address
	// RewardToken is the reward token address listed on this network's records.
	RewardToken    string
	DepositSymbols []string
}

// PoolID returns the aggregator pool identifier for an LP token.
func (n Network) PoolID(lpToken string) string {
	return lpToken + "-" + n.Name
}

// PoolURL returns the app deep link for a pool symbol. Symbols listed in
// DepositSymbols link to the deposit page, everything else to the zap page.
func (n Network) PoolURL(appURL, symbol string) string {
	action := "zap"
	for _, s := range n.DepositSymbols {
		if s == symbol {
			action = "deposit"
			break
		}
	}
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(appURL, "/"), action, n.Name, strings.ToLower(symbol))
}
