package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hxuan190/cpmm-router/internal/adapters/snapshot"
	"github.com/hxuan190/cpmm-router/internal/aggregator"
	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/config"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/services/router"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuoteCLI(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	common.InitLogger(cfg.LogLevel, true)

	params, err := quoteParams(cfg)
	if err != nil {
		return err
	}

	pools, err := snapshot.Load(cfg.PoolsFile)
	if err != nil {
		return err
	}
	log.Debug().Int("pools", pools.Len()).Str("file", cfg.PoolsFile).Msg("[routectl] snapshot loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := aggregator.New(pools, cfg.RouterConfig())
	outcome, err := svc.Quote(ctx, params)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}

	printQuote(cmd.OutOrStdout(), outcome)
	return nil
}

func quoteParams(cfg config.QuoteCLIConfig) (domain.QuoteParams, error) {
	in, err := solana.PublicKeyFromBase58(cfg.InputMint)
	if err != nil {
		return domain.QuoteParams{}, fmt.Errorf("invalid input mint: %w", err)
	}
	out, err := solana.PublicKeyFromBase58(cfg.OutputMint)
	if err != nil {
		return domain.QuoteParams{}, fmt.Errorf("invalid output mint: %w", err)
	}
	amount, ok := new(big.Int).SetString(cfg.Amount, 10)
	if !ok {
		return domain.QuoteParams{}, fmt.Errorf("invalid amount %q", cfg.Amount)
	}
	mode, err := domain.ParseSwapMode(cfg.SwapMode)
	if err != nil {
		return domain.QuoteParams{}, err
	}
	return domain.QuoteParams{
		InputMint:   in,
		OutputMint:  out,
		Amount:      amount,
		Mode:        mode,
		SlippageBps: uint16(cfg.SlippageBps),
	}, nil
}

func printQuote(w io.Writer, outcome *domain.QuoteOutcome) {
	q := outcome.Quote
	b := outcome.Bounded

	fmt.Fprintf(w, "mode        %s\n", q.Mode)
	fmt.Fprintf(w, "amount in   %s\n", formatAmount(q.TotalAmountIn, outcome.InputToken))
	fmt.Fprintf(w, "amount out  %s\n", formatAmount(q.TotalAmountOut, outcome.OutputToken))
	if q.Mode == domain.ExactIn {
		fmt.Fprintf(w, "min out     %s (%d bps)\n", formatAmount(b.TotalAmountOut, outcome.OutputToken), b.SlippageBps)
	} else {
		fmt.Fprintf(w, "max in      %s (%d bps)\n", formatAmount(b.TotalAmountIn, outcome.InputToken), b.SlippageBps)
	}
	fmt.Fprintf(w, "impact      %s%% (%s)\n",
		decimal.New(int64(q.PriceImpactBps), -2).StringFixed(2),
		router.GetPriceImpactSeverity(q.PriceImpactBps))
	if warning := router.GetPriceImpactWarning(q.PriceImpactBps); warning != "" {
		fmt.Fprintf(w, "warning     %s\n", warning)
	}
	fmt.Fprintf(w, "searched    %d pools, %d paths\n", outcome.PoolsConsidered, outcome.PathsEvaluated)

	for i, hop := range b.Hops {
		fmt.Fprintf(w, "hop %d  pool %s\n", i+1, hop.Pool.Address)
		fmt.Fprintf(w, "       %s -> %s\n", hop.InputMint, hop.OutputMint)
		fmt.Fprintf(w, "       in %s  out %s  fee %s  impact %d bps\n", hop.AmountIn, hop.AmountOut, hop.FeeAmount, hop.PriceImpactBps)
	}
}

func formatAmount(amount *big.Int, meta domain.TokenMetadata) string {
	if meta.Mint.IsZero() {
		return amount.String()
	}
	return fmt.Sprintf("%s (%s)", amount, decimal.NewFromBigInt(amount, -int32(meta.Decimals)).String())
}
