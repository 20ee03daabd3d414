package router

import (
	"math/big"

	"github.com/hxuan190/cpmm-router/internal/domain"
)

// ApplySlippage returns a copy of quote carrying slippage bounds. ExactIn
// lowers every hop's MinAmountOut and the total output by slippageBps;
// ExactOut raises every hop's MaxAmountIn and the total input. The input
// quote is not modified.
func ApplySlippage(quote *domain.RouteQuote, slippageBps uint16, mode domain.SwapMode) *domain.RouteQuote {
	if quote == nil {
		return nil
	}

	bounded := &domain.RouteQuote{
		Mode:           quote.Mode,
		InputMint:      quote.InputMint,
		OutputMint:     quote.OutputMint,
		Hops:           make([]domain.RouteHop, len(quote.Hops)),
		TotalAmountIn:  copyInt(quote.TotalAmountIn),
		TotalAmountOut: copyInt(quote.TotalAmountOut),
		PriceImpactBps: quote.PriceImpactBps,
		SlippageBps:    slippageBps,
	}
	copy(bounded.Hops, quote.Hops)

	if mode == domain.ExactIn {
		factor := big.NewInt(10000 - int64(slippageBps))
		for i := range bounded.Hops {
			bounded.Hops[i].MinAmountOut = scaleBps(quote.Hops[i].AmountOut, factor)
		}
		bounded.TotalAmountOut = scaleBps(quote.TotalAmountOut, factor)
	} else {
		factor := big.NewInt(10000 + int64(slippageBps))
		for i := range bounded.Hops {
			bounded.Hops[i].MaxAmountIn = scaleBps(quote.Hops[i].AmountIn, factor)
		}
		bounded.TotalAmountIn = scaleBps(quote.TotalAmountIn, factor)
	}

	return bounded
}

// scaleBps returns floor(amount * factor / 10000).
func scaleBps(amount, factor *big.Int) *big.Int {
	if amount == nil {
		return nil
	}
	out := new(big.Int).Mul(amount, factor)
	return out.Quo(out, BPS_DENOM)
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
