package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "routectl",
		Short:        "Offline CPMM route quoting",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote the best route over a pool snapshot",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("pools", "", "pool snapshot JSON path")
	quoteCmd.Flags().String("in", "", "input mint (base58)")
	quoteCmd.Flags().String("out", "", "output mint (base58)")
	quoteCmd.Flags().String("amount", "", "amount in smallest units (input for ExactIn, output for ExactOut)")
	quoteCmd.Flags().String("mode", "ExactIn", "swap mode (ExactIn, ExactOut)")
	quoteCmd.Flags().Int("slippage-bps", 50, "slippage tolerance in basis points")
	quoteCmd.Flags().Int("max-hops", 3, "longest route to consider (1-4)")
	quoteCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read pools from chain and write a snapshot file",
		RunE:  runSnapshot,
	}

	snapshotCmd.Flags().String("rpc", "", "Solana RPC URL")
	snapshotCmd.Flags().String("program-id", "", "CPMM program id (default Raydium CP-swap)")
	snapshotCmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated)")
	snapshotCmd.Flags().String("out", "./data/pools.json", "output snapshot path")
	snapshotCmd.Flags().Int("batch-size", 100, "accounts per getMultipleAccounts call")
	snapshotCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(snapshotCmd)
	return root
}
