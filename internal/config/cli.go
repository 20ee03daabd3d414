package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Offline quotes read no chain state, so the bound only guards the router.
const defaultCLIQuoteTimeout = 30 * time.Second

// QuoteCLIConfig holds the settings of an offline routectl quote.
type QuoteCLIConfig struct {
	PoolsFile   string
	InputMint   string
	OutputMint  string
	Amount      string
	SwapMode    string
	SlippageBps int
	MaxHops     int
	LogLevel    string
}

// SnapshotCLIConfig holds the settings of routectl snapshot.
type SnapshotCLIConfig struct {
	RPCURL    string
	ProgramID string
	Pools     []string
	Out       string
	BatchSize int
	LogLevel  string
}

func newCLIViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("ROUTECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("routectl")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// LoadQuoteCLI merges config file, ROUTECTL_* environment variables and flags.
func LoadQuoteCLI(cfgFile string, flags *pflag.FlagSet) (QuoteCLIConfig, error) {
	v, err := newCLIViper(cfgFile, flags)
	if err != nil {
		return QuoteCLIConfig{}, err
	}
	v.SetDefault("mode", "ExactIn")
	v.SetDefault("slippage-bps", 50)
	v.SetDefault("max-hops", 3)

	cfg := QuoteCLIConfig{
		PoolsFile:   v.GetString("pools"),
		InputMint:   v.GetString("in"),
		OutputMint:  v.GetString("out"),
		Amount:      v.GetString("amount"),
		SwapMode:    v.GetString("mode"),
		SlippageBps: v.GetInt("slippage-bps"),
		MaxHops:     v.GetInt("max-hops"),
		LogLevel:    v.GetString("log-level"),
	}
	return cfg, cfg.Validate()
}

func (c QuoteCLIConfig) Validate() error {
	switch {
	case c.PoolsFile == "":
		return errors.New("pools snapshot path is required")
	case c.InputMint == "" || c.OutputMint == "":
		return errors.New("input and output mint are required")
	case c.Amount == "":
		return errors.New("amount is required")
	case c.SlippageBps < 0 || c.SlippageBps > 10000:
		return fmt.Errorf("slippage-bps must be in [0, 10000], got %d", c.SlippageBps)
	case c.MaxHops < 1 || c.MaxHops > 4:
		return fmt.Errorf("max-hops must be in [1, 4], got %d", c.MaxHops)
	}
	return nil
}

// RouterConfig turns the CLI settings into the engine's router settings.
func (c QuoteCLIConfig) RouterConfig() *RouterConfig {
	return &RouterConfig{
		MaxHops:            c.MaxHops,
		ParallelThreshold:  8,
		DefaultSlippageBps: c.SlippageBps,
		MaxSlippageBps:     10000,
		QuoteTimeout:       defaultCLIQuoteTimeout,
	}
}

// LoadSnapshotCLI merges config file, ROUTECTL_* environment variables and flags.
func LoadSnapshotCLI(cfgFile string, flags *pflag.FlagSet) (SnapshotCLIConfig, error) {
	v, err := newCLIViper(cfgFile, flags)
	if err != nil {
		return SnapshotCLIConfig{}, err
	}
	v.SetDefault("program-id", RaydiumCpmmProgramID)
	v.SetDefault("batch-size", 100)

	cfg := SnapshotCLIConfig{
		RPCURL:    v.GetString("rpc"),
		ProgramID: v.GetString("program-id"),
		Pools:     v.GetStringSlice("pool"),
		Out:       v.GetString("out"),
		BatchSize: v.GetInt("batch-size"),
		LogLevel:  v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return cfg, errors.New("rpc url is required")
	}
	if len(cfg.Pools) == 0 {
		return cfg, errors.New("at least one pool address is required")
	}
	if cfg.Out == "" {
		return cfg, errors.New("output path is required")
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		return cfg, fmt.Errorf("batch-size must be in [1, 100], got %d", cfg.BatchSize)
	}
	return cfg, nil
}
