// Package config loads a contract deployment from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/collectible"
	"github.com/pflow-xyz/go-collectible/ledger"
)

// Env is the raw environment shape. Amounts arrive as decimal wei strings
// because uint256 values exceed every native integer type.
type Env struct {
	BaseURI        string `env:"COLLECTIBLE_BASE_URI"          envDefault:"ipfs://collectible/"`
	UnitPriceWei   string `env:"COLLECTIBLE_UNIT_PRICE_WEI"    envDefault:"100000000000000000"`
	RoyaltyBps     uint64 `env:"COLLECTIBLE_ROYALTY_BPS"       envDefault:"1000"`
	Authority      string `env:"COLLECTIBLE_AUTHORITY"         envDefault:"owner"`
	MarketOperator string `env:"COLLECTIBLE_MARKET_OPERATOR"`
	JournalPath    string `env:"COLLECTIBLE_JOURNAL"`
}

// Load parses the environment into a contract config. JournalPath is
// returned separately; an empty path means journal to memory only.
func Load() (collectible.Config, string, error) {
	var raw Env
	if err := env.Parse(&raw); err != nil {
		return collectible.Config{}, "", fmt.Errorf("config: parse env: %w", err)
	}
	return build(raw)
}

func build(raw Env) (collectible.Config, string, error) {
	unitPrice, err := uint256.FromDecimal(raw.UnitPriceWei)
	if err != nil {
		return collectible.Config{}, "", fmt.Errorf("config: unit price %q: %w", raw.UnitPriceWei, err)
	}
	cfg := collectible.Config{
		BaseURI:        raw.BaseURI,
		UnitPrice:      unitPrice,
		RoyaltyBps:     raw.RoyaltyBps,
		Authority:      ledger.Address(raw.Authority),
		MarketOperator: ledger.Address(raw.MarketOperator),
	}
	return cfg, raw.JournalPath, nil
}
