package model

// PoolYieldRecord is the normalized yield entry handed to the aggregator.
type PoolYieldRecord struct {
	Pool             string   `json:"pool"`
	Chain            string   `json:"chain"`
	Project          string   `json:"project"`
	Symbol           string   `json:"symbol"`
	TVLUSD           float64  `json:"tvlUsd"`
	APYBase          float64  `json:"apyBase"`
	APYReward        float64  `json:"apyReward"`
	UnderlyingTokens []string `json:"underlyingTokens"`
	RewardTokens     []string `json:"rewardTokens"`
	URL              string   `json:"url"`
}
