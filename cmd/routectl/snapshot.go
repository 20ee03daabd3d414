package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hxuan190/cpmm-router/internal/adapters/blockchain"
	"github.com/hxuan190/cpmm-router/internal/adapters/snapshot"
	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/config"
	"github.com/hxuan190/cpmm-router/internal/services/market"
)

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshotCLI(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	common.InitLogger(cfg.LogLevel, true)

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program id: %w", err)
	}
	addresses := make([]solana.PublicKey, 0, len(cfg.Pools))
	for _, raw := range cfg.Pools {
		addr, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return fmt.Errorf("invalid pool address %q: %w", raw, err)
		}
		addresses = append(addresses, addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := blockchain.NewRPCAccountReader(cfg.RPCURL, cfg.BatchSize)
	result, err := market.NewPoolSource(reader, programID, cfg.BatchSize).LoadPools(ctx, addresses)
	if err != nil {
		return fmt.Errorf("load pools: %w", err)
	}
	for addr, reason := range result.Skipped {
		log.Warn().Str("pool", addr.String()).Str("reason", reason).Msg("[routectl] pool skipped")
	}
	if len(result.Pools) == 0 {
		return fmt.Errorf("none of the %d pools could be loaded", len(addresses))
	}

	if err := snapshot.Write(cfg.Out, result.Pools); err != nil {
		return err
	}
	log.Info().Int("pools", len(result.Pools)).Str("out", cfg.Out).Msg("[routectl] snapshot written")
	return nil
}
