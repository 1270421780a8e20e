// Package config defines all engine configuration. Config is loaded from a
// YAML file (default: configs/config.yaml) with overrides via TRADECORE_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level engine configuration, mapped directly from the
// YAML file structure.
type Config struct {
	Bus     BusConfig      `mapstructure:"bus"`
	Markets []MarketConfig `mapstructure:"markets"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// BusConfig points the engine at its Redis-backed message bus.
type BusConfig struct {
	RedisURL     string `mapstructure:"redis_url"`
	RequestQueue string `mapstructure:"request_queue"`
	StorageQueue string `mapstructure:"storage_queue"`
}

// MarketConfig describes one tradeable market: its symbol, the two assets
// it settles in, its minimum price/quantity increments, and which price-tree
// backend its order book uses ("hashmap" or "sharded"; empty defaults to
// "hashmap").
type MarketConfig struct {
	Symbol            string `mapstructure:"symbol"`
	BaseAsset         string `mapstructure:"base_asset"`
	QuoteAsset        string `mapstructure:"quote_asset"`
	PriceIncrement    uint64 `mapstructure:"price_increment"`
	QuantityIncrement uint64 `mapstructure:"quantity_increment"`
	TreeKind          string `mapstructure:"tree_kind"`
}

// LoggingConfig controls process-wide log verbosity and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with TRADECORE_* environment overrides
// (e.g. TRADECORE_BUS_REDIS_URL overrides bus.redis_url).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TRADECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Bus.RedisURL == "" {
		return fmt.Errorf("bus.redis_url is required")
	}
	if c.Bus.RequestQueue == "" {
		return fmt.Errorf("bus.request_queue is required")
	}
	if c.Bus.StorageQueue == "" {
		return fmt.Errorf("bus.storage_queue is required")
	}
	if len(c.Markets) == 0 {
		return fmt.Errorf("at least one market must be configured")
	}
	seen := make(map[string]bool, len(c.Markets))
	for _, m := range c.Markets {
		if m.Symbol == "" {
			return fmt.Errorf("markets: symbol is required")
		}
		if seen[m.Symbol] {
			return fmt.Errorf("markets: duplicate symbol %q", m.Symbol)
		}
		seen[m.Symbol] = true
		if m.BaseAsset == "" || m.QuoteAsset == "" {
			return fmt.Errorf("markets[%s]: base_asset and quote_asset are required", m.Symbol)
		}
		if m.PriceIncrement == 0 || m.QuantityIncrement == 0 {
			return fmt.Errorf("markets[%s]: price_increment and quantity_increment must be > 0", m.Symbol)
		}
		switch m.TreeKind {
		case "", "hashmap", "sharded":
		default:
			return fmt.Errorf("markets[%s]: tree_kind must be \"hashmap\" or \"sharded\", got %q", m.Symbol, m.TreeKind)
		}
	}
	return nil
}

// MarketBySymbol returns the configured market named symbol, or false if
// unconfigured.
func (c *Config) MarketBySymbol(symbol string) (MarketConfig, bool) {
	for _, m := range c.Markets {
		if m.Symbol == symbol {
			return m, true
		}
	}
	return MarketConfig{}, false
}
