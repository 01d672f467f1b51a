package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config centralizes environment-driven settings for the bid authority and
// the bidding core defaults it hands to clients.
type Config struct {
	Port     string `envconfig:"BIDDING_PORT" default:"8080"`
	LogLevel string `envconfig:"BIDDING_LOG_LEVEL" default:"info"`

	// BidIncrement is the flat step added on top of the current bid. Kept
	// configurable on purpose: the flat half-unit default is product policy
	// under review, not a fixed rule.
	BidIncrement string `envconfig:"BIDDING_BID_INCREMENT" default:"0.50"`

	EndingSoonWindow time.Duration `envconfig:"BIDDING_ENDING_SOON_WINDOW" default:"1h"`

	// RedisAddr enables the shared highest-bid cache when set.
	RedisAddr     string        `envconfig:"BIDDING_REDIS_ADDR"`
	HighestBidTTL time.Duration `envconfig:"BIDDING_HIGHEST_BID_TTL" default:"30s"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Increment(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Increment parses the configured bid increment
func (c *Config) Increment() (decimal.Decimal, error) {
	inc, err := decimal.NewFromString(c.BidIncrement)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid bid increment %q: %w", c.BidIncrement, err)
	}
	if inc.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("bid increment %q must be positive", c.BidIncrement)
	}
	return inc, nil
}
