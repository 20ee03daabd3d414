package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
)

// RaydiumCpmmProgramID is the mainnet constant-product swap program.
const RaydiumCpmmProgramID = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

type MarketConfig struct {
	// ProgramID owns every pool account the service will quote against.
	// Default: Raydium CP-swap
	ProgramID string

	// PoolAddresses seeds the tracked pool set (base58, comma separated).
	PoolAddresses []string

	// DBPath is the path to the BoltDB file for tracked pool persistence.
	// Default: "./data/market.db"
	DBPath string

	// PersistenceEnabled controls whether tracked pools are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// MetadataCacheSize bounds the token metadata LRU.
	// Default: 4096
	MetadataCacheSize int

	// FetchBatchSize is the number of accounts per getMultipleAccounts call.
	// Default: 100
	FetchBatchSize int
}

func (c *MarketConfig) Key() string {
	return MARKET_CONFIG_KEY
}

func (c *MarketConfig) Load() error {
	c.ProgramID = common.GetEnvOrDefault("CPMM_PROGRAM_ID", RaydiumCpmmProgramID)
	c.PoolAddresses = splitList(os.Getenv("CPMM_POOL_ADDRESSES"))
	c.DBPath = common.GetEnvOrDefault("MARKET_DB_PATH", "./data/market.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("MARKET_PERSISTENCE_ENABLED", "true") == "true"
	c.MetadataCacheSize = common.GetEnvOrDefaultInt("TOKEN_METADATA_CACHE_SIZE", 4096)
	c.FetchBatchSize = common.GetEnvOrDefaultInt("MARKET_FETCH_BATCH_SIZE", 100)
	return c.Validate()
}

func (c *MarketConfig) Validate() error {
	if c.ProgramID == "" {
		return fmt.Errorf("invalid market config: CPMM_PROGRAM_ID is empty")
	}
	if c.MetadataCacheSize <= 0 {
		return fmt.Errorf("invalid market config: TOKEN_METADATA_CACHE_SIZE must be positive")
	}
	// getMultipleAccounts accepts at most 100 keys.
	if c.FetchBatchSize <= 0 || c.FetchBatchSize > 100 {
		return fmt.Errorf("invalid market config: MARKET_FETCH_BATCH_SIZE must be in [1, 100]")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
