package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY = "general-config"
	RPC_CONFIG_KEY     = "rpc-config"
	ROUTER_CONFIG_KEY  = "router-config"
	MARKET_CONFIG_KEY  = "market-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string

	// LogConsole switches to human readable log output.
	// Default: false (JSON lines)
	LogConsole bool
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.LogConsole = common.GetEnvOrDefault("LOG_CONSOLE", "false") == "true"
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	if port, err := strconv.Atoi(gc.HTTPPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server config: HTTP_PORT %q is not a port", gc.HTTPPort)
	}
	switch gc.Env {
	case DevEnv, StagingEnv, ProdEnv:
	default:
		return fmt.Errorf("invalid server config: ENV must be dev, staging or prod, got %q", gc.Env)
	}
	return nil
}
