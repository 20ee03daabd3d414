package main

import (
	"os"

	"github.com/hxuan190/cpmm-router/internal/aggregator"
	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/config"
	"github.com/hxuan190/cpmm-router/internal/http"
	"github.com/hxuan190/cpmm-router/internal/services/market"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
)

// @title CPMM Router API
// @version 1.0
// @description Best-route quoting across constant-product (x*y=k) pools.
// @description
// @description ## - Features
// @description - **Multi-Hop Routing**: Every simple path of up to ROUTER_MAX_HOPS pools is evaluated
// @description - **ExactIn and ExactOut**: Fix the input and maximise output, or fix the output and minimise input
// @description - **Fresh State**: Pool reserves are read from chain for every quote, nothing is cached
// @description - **Exact Arithmetic**: Integer math with ceiling-rounded fees, matching the on-chain program
// @description - **Slippage Bounds**: Per-hop and route-level minimum output or maximum input
// @description - **Price Impact Analysis**: Impact in basis points with severity warnings
// @description
// @description ## - Usage Tips
// @description - Use smallest token units (lamports for SOL, base units for SPL tokens)
// @description - Default slippage is 50 bps (0.5%)
// @description - Rate Limit: 10 requests/second per client (burst: 20)
// @description
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Best-route quotes with slippage bounds and price impact
// @tag.name pools
// @tag.description Tracked pool set
// @tag.name admin
// @tag.description Tracked pool management

func main() {
	// load env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	common.InitLogger(general.LogLevel, general.LogConsole)

	// GOGC, GOMAXPROCS, GOMEMLIMIT
	common.InitRuntimeForHFT()

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.RouterConfig{},
		&config.MarketConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&market.Service{},
		&aggregator.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// Run doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
