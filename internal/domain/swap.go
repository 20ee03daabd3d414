package domain

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// QuoteParams is a validated quote request in smallest token units.
type QuoteParams struct {
	InputMint solana.PublicKey

	OutputMint solana.PublicKey

	Amount *big.Int

	Mode SwapMode

	SlippageBps uint16
}

// QuoteOutcome pairs the unbounded route with its slippage-bounded copy.
type QuoteOutcome struct {
	Quote   *RouteQuote
	Bounded *RouteQuote

	PoolsConsidered int
	PathsEvaluated  int

	// Zero Mint when metadata could not be resolved.
	InputToken  TokenMetadata
	OutputToken TokenMetadata
}

// TokenMetadata is what the metadata collaborator resolves for a mint.
type TokenMetadata struct {
	Mint         solana.PublicKey `json:"mint"`
	Decimals     uint8            `json:"decimals"`
	TokenProgram solana.PublicKey `json:"tokenProgram"`
}

// TrackedPool is the persisted configuration of a pool the service quotes against.
// Reserves are not part of it; they are read fresh for every request.
type TrackedPool struct {
	Address     solana.PublicKey `json:"address"`
	ProgramID   solana.PublicKey `json:"programId"`
	TokenMintA  solana.PublicKey `json:"tokenMintA"`
	TokenMintB  solana.PublicKey `json:"tokenMintB"`
	TokenVaultA solana.PublicKey `json:"tokenVaultA"`
	TokenVaultB solana.PublicKey `json:"tokenVaultB"`
	AmmConfig   solana.PublicKey `json:"ammConfig"`
	DecimalsA   uint8            `json:"decimalsA"`
	DecimalsB   uint8            `json:"decimalsB"`
}
