package domain

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

type SwapMode uint8

const (
	ExactIn SwapMode = iota
	ExactOut
)

func (m SwapMode) String() string {
	switch m {
	case ExactIn:
		return "ExactIn"
	case ExactOut:
		return "ExactOut"
	default:
		return "UNKNOWN"
	}
}

// ParseSwapMode accepts the wire names "ExactIn" and "ExactOut".
func ParseSwapMode(s string) (SwapMode, error) {
	switch s {
	case "ExactIn":
		return ExactIn, nil
	case "ExactOut":
		return ExactOut, nil
	default:
		return 0, fmt.Errorf("invalid swap mode %q: must be ExactIn or ExactOut", s)
	}
}

// RouteHop is one leg of a route with its direction resolved against the pool.
type RouteHop struct {
	Pool           *Pool
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey
	AmountIn       *big.Int
	AmountOut      *big.Int
	FeeAmount      *big.Int
	PriceImpactBps uint16

	// Set by slippage adjustment only.
	MinAmountOut *big.Int
	MaxAmountIn  *big.Int
}

// RouteQuote is a fully priced path from InputMint to OutputMint.
type RouteQuote struct {
	Mode           SwapMode
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey
	Hops           []RouteHop
	TotalAmountIn  *big.Int
	TotalAmountOut *big.Int
	PriceImpactBps uint16
	SlippageBps    uint16
}

// TokenPath returns the mints visited by the route, input first.
func (q *RouteQuote) TokenPath() []solana.PublicKey {
	if len(q.Hops) == 0 {
		return nil
	}
	path := make([]solana.PublicKey, 0, len(q.Hops)+1)
	path = append(path, q.Hops[0].InputMint)
	for _, hop := range q.Hops {
		path = append(path, hop.OutputMint)
	}
	return path
}

// PoolAddresses returns the pools used by the route in hop order.
func (q *RouteQuote) PoolAddresses() []solana.PublicKey {
	addrs := make([]solana.PublicKey, 0, len(q.Hops))
	for _, hop := range q.Hops {
		if hop.Pool != nil {
			addrs = append(addrs, hop.Pool.Address)
		}
	}
	return addrs
}

// OtherAmountThreshold is the bound the caller must enforce on chain:
// minimum output for ExactIn, maximum input for ExactOut.
func (q *RouteQuote) OtherAmountThreshold() *big.Int {
	if q.Mode == ExactIn {
		return q.TotalAmountOut
	}
	return q.TotalAmountIn
}
