package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default endpoints and contract addresses of the deployed protocol.
const (
	DefaultPricesURL = "https://coins.llama.fi/prices/current"
	DefaultAppURL    = "https://app.ipor.io"
	DefaultProject   = "ipor-derivatives"
)

// NetworkConfig holds per network settings.
type NetworkConfig struct {
	Name           string
	Chain          string
	ChainID        uint64
	RPCURL         string
	StatsURL       string
	MiningContract string
	RewardToken    string
	DepositSymbols []string
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Networks        []NetworkConfig
	PricesURL       string
	AppURL          string
	Project         string
	RewardNetwork   string
	IsolateNetworks bool
	HTTPTimeout     time.Duration
	Concurrency     int
	Out             string
	PGDSN           string
	StateFile       string
	MinInterval     time.Duration
	Schedule        string
	LogLevel        string
}

var networkDefaults = map[string]NetworkConfig{
	"ethereum": {
		Name:           "ethereum",
		Chain:          "Ethereum",
		ChainID:        1,
		StatsURL:       "https://api.ipor.io/monitor/liquiditypool-statistics-1",
		MiningContract: "0xCC3Fc4C9Ba7f8b8aA433Bc586D390A70560FF366",
		RewardToken:    "0x1e4746dc744503b53b4a082cb3607b169a289090",
	},
	"arbitrum": {
		Name:           "arbitrum",
		Chain:          "Arbitrum",
		ChainID:        42161,
		StatsURL:       "https://api.ipor.io/monitor/liquiditypool-statistics-42161",
		MiningContract: "0xdE645aB0560E5A413820234d9DDED5f4a55Ff6dd",
		RewardToken:    "0x34229b3f16fbcdfa8d8d9d17c0852f9496f4c7bb",
		DepositSymbols: []string{"USDM"},
	},
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("networks", []string{"ethereum", "arbitrum"})
	v.SetDefault("prices-url", DefaultPricesURL)
	v.SetDefault("app-url", DefaultAppURL)
	v.SetDefault("project", DefaultProject)
	v.SetDefault("reward-network", "ethereum")
	v.SetDefault("isolate-networks", false)
	v.SetDefault("http-timeout", 30*time.Second)
	v.SetDefault("concurrency", 8)
	v.SetDefault("schedule", "@every 1h")
	v.SetDefault("log-level", "info")
	for name, def := range networkDefaults {
		prefix := "network." + name + "."
		v.SetDefault(prefix+"chain", def.Chain)
		v.SetDefault(prefix+"chain-id", def.ChainID)
		v.SetDefault(prefix+"stats-url", def.StatsURL)
		v.SetDefault(prefix+"mining-contract", def.MiningContract)
		v.SetDefault(prefix+"reward-token", def.RewardToken)
		v.SetDefault(prefix+"deposit-symbols", def.DepositSymbols)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	rpcOverrides := getStringMap(v, "rpc")
	names := getStringSlice(v, "networks")
	networks := make([]NetworkConfig, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(name)
		prefix := "network." + name + "."
		rpcURL := v.GetString(prefix + "rpc")
		if override, ok := rpcOverrides[name]; ok {
			rpcURL = override
		}
		networks = append(networks, NetworkConfig{
			Name:           name,
			Chain:          v.GetString(prefix + "chain"),
			ChainID:        v.GetUint64(prefix + "chain-id"),
			RPCURL:         rpcURL,
			StatsURL:       v.GetString(prefix + "stats-url"),
			MiningContract: v.GetString(prefix + "mining-contract"),
			RewardToken:    v.GetString(prefix + "reward-token"),
			DepositSymbols: getStringSlice(v, prefix+"deposit-symbols"),
		})
	}

	cfg := Config{
		Networks:        networks,
		PricesURL:       v.GetString("prices-url"),
		AppURL:          v.GetString("app-url"),
		Project:         v.GetString("project"),
		RewardNetwork:   strings.ToLower(v.GetString("reward-network")),
		IsolateNetworks: v.GetBool("isolate-networks"),
		HTTPTimeout:     v.GetDuration("http-timeout"),
		Concurrency:     v.GetInt("concurrency"),
		Out:             v.GetString("out"),
		PGDSN:           v.GetString("pg-dsn"),
		StateFile:       v.GetString("state-file"),
		MinInterval:     v.GetDuration("min-interval"),
		Schedule:        v.GetString("schedule"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks that every enabled network is fully configured.
func (c Config) Validate() error {
	if len(c.Networks) == 0 {
		return fmt.Errorf("at least one network is required")
	}
	if c.PricesURL == "" {
		return fmt.Errorf("prices url is required")
	}
	if _, ok := c.Network(c.RewardNetwork); !ok {
		return fmt.Errorf("reward network %q is not enabled", c.RewardNetwork)
	}
	seen := make(map[string]struct{}, len(c.Networks))
	for _, n := range c.Networks {
		if _, ok := seen[n.Name]; ok {
			return fmt.Errorf("network %s listed twice", n.Name)
		}
		seen[n.Name] = struct{}{}

		switch {
		case n.Chain == "":
			return fmt.Errorf("network %s: chain name is required", n.Name)
		case n.RPCURL == "":
			return fmt.Errorf("network %s: rpc url is required", n.Name)
		case n.StatsURL == "":
			return fmt.Errorf("network %s: stats url is required", n.Name)
		case n.MiningContract == "":
			return fmt.Errorf("network %s: mining contract is required", n.Name)
		case n.RewardToken == "":
			return fmt.Errorf("network %s: reward token is required", n.Name)
		}
	}
	return nil
}

// Network returns the enabled network with the given name.
func (c Config) Network(name string) (NetworkConfig, bool) {
	for _, n := range c.Networks {
		if n.Name == name {
			return n, true
		}
	}
	return NetworkConfig{}, false
}
