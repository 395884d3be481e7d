package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.PricesURL != DefaultPricesURL || cfg.AppURL != DefaultAppURL || cfg.Project != DefaultProject {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.Concurrency != 8 {
		t.Fatalf("timeout/concurrency mismatch: %s %d", cfg.HTTPTimeout, cfg.Concurrency)
	}
	if len(cfg.Networks) != 2 {
		t.Fatalf("network count mismatch: %d", len(cfg.Networks))
	}

	arb, ok := cfg.Network("arbitrum")
	if !ok {
		t.Fatalf("arbitrum missing")
	}
	if arb.ChainID != 42161 || arb.Chain != "Arbitrum" {
		t.Fatalf("arbitrum mismatch: %+v", arb)
	}
	if !reflect.DeepEqual(arb.DepositSymbols, []string{"USDM"}) {
		t.Fatalf("deposit symbols mismatch: %v", arb.DepositSymbols)
	}
	eth, _ := cfg.Network("ethereum")
	if len(eth.DepositSymbols) != 0 {
		t.Fatalf("ethereum deposit symbols should be empty: %v", eth.DepositSymbols)
	}
}

func TestLoadRPCFromEnvAndFlag(t *testing.T) {
	t.Setenv("YIELD_NETWORK_ETHEREUM_RPC", "https://eth.example")
	t.Setenv("YIELD_NETWORK_ARBITRUM_RPC", "https://arb.example")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Bool("isolate-networks", false, "")
	if err := flags.Parse([]string{"--rpc", "Arbitrum=https://arb.override", "--isolate-networks"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	eth, _ := cfg.Network("ethereum")
	arb, _ := cfg.Network("arbitrum")
	if eth.RPCURL != "https://eth.example" {
		t.Fatalf("ethereum rpc mismatch: %s", eth.RPCURL)
	}
	if arb.RPCURL != "https://arb.override" {
		t.Fatalf("arbitrum rpc mismatch: %s", arb.RPCURL)
	}
	if !cfg.IsolateNetworks {
		t.Fatalf("isolate-networks flag not applied")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yield.yaml")
	content := `
networks: [ethereum]
http-timeout: 5s
network:
  ethereum:
    rpc: https://eth.file
    stats-url: https://stats.example/1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Networks) != 1 {
		t.Fatalf("network count mismatch: %d", len(cfg.Networks))
	}
	eth := cfg.Networks[0]
	if eth.RPCURL != "https://eth.file" || eth.StatsURL != "https://stats.example/1" {
		t.Fatalf("file values mismatch: %+v", eth)
	}
	if eth.MiningContract != networkDefaults["ethereum"].MiningContract {
		t.Fatalf("default contract lost: %s", eth.MiningContract)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("timeout mismatch: %s", cfg.HTTPTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing rpc error")
	}

	for i := range cfg.Networks {
		cfg.Networks[i].RPCURL = "http://localhost:8545"
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.RewardNetwork = "optimism"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected reward network error")
	}
}

func TestParseStringMap(t *testing.T) {
	got := parseStringMap(" ethereum = a ,bad, arbitrum=b,=c")
	want := map[string]string{"ethereum": "a", "arbitrum": "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("map mismatch: %v", got)
	}
}
