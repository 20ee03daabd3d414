package config

import (
	"fmt"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RouterConfig struct {
	// MaxHops bounds the number of pools in a route.
	// Default: 3
	MaxHops int

	// ParallelThreshold is the path count above which paths are quoted concurrently.
	// Default: 8
	ParallelThreshold int

	// DefaultSlippageBps applies when a request does not carry slippageBps.
	// Default: 50
	DefaultSlippageBps int

	// MaxSlippageBps is the largest slippage a request may ask for.
	// Default: 5000
	MaxSlippageBps int

	// QuoteTimeout bounds the fresh pool load of one quote request.
	// Default: 2000ms
	QuoteTimeout time.Duration
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	c.MaxHops = common.GetEnvOrDefaultInt("ROUTER_MAX_HOPS", 3)
	c.ParallelThreshold = common.GetEnvOrDefaultInt("ROUTER_PARALLEL_THRESHOLD", 8)
	c.DefaultSlippageBps = common.GetEnvOrDefaultInt("ROUTER_DEFAULT_SLIPPAGE_BPS", 50)
	c.MaxSlippageBps = common.GetEnvOrDefaultInt("ROUTER_MAX_SLIPPAGE_BPS", 5000)
	c.QuoteTimeout = time.Duration(common.GetEnvOrDefaultInt("ROUTER_QUOTE_TIMEOUT_MS", 2000)) * time.Millisecond
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.MaxHops < 1 || c.MaxHops > 4 {
		return fmt.Errorf("invalid router config: ROUTER_MAX_HOPS must be in [1, 4], got %d", c.MaxHops)
	}
	if c.MaxSlippageBps < 0 || c.MaxSlippageBps > 10000 {
		return fmt.Errorf("invalid router config: ROUTER_MAX_SLIPPAGE_BPS must be in [0, 10000], got %d", c.MaxSlippageBps)
	}
	if c.DefaultSlippageBps < 0 || c.DefaultSlippageBps > c.MaxSlippageBps {
		return fmt.Errorf("invalid router config: ROUTER_DEFAULT_SLIPPAGE_BPS must be in [0, %d], got %d", c.MaxSlippageBps, c.DefaultSlippageBps)
	}
	if c.QuoteTimeout <= 0 {
		return fmt.Errorf("invalid router config: ROUTER_QUOTE_TIMEOUT_MS must be positive")
	}
	return nil
}
