package router

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

// pathEvaluationResult holds the result of evaluating a single path
type pathEvaluationResult struct {
	route *domain.RouteQuote
	err   error
}

// QuotePathExactIn walks path forward, feeding each hop's output into the next.
func QuotePathExactIn(path []*domain.Pool, inputMint, outputMint solana.PublicKey, amountIn *big.Int) (*domain.RouteQuote, error) {
	if len(path) == 0 {
		return nil, ErrNoRoute
	}

	hops := make([]domain.RouteHop, 0, len(path))
	impacts := make([]uint16, 0, len(path))
	current := inputMint
	currentAmount := amountIn

	for i, pool := range path {
		if !pool.HasMint(current) {
			return nil, fmt.Errorf("%w: hop %d pool %s token %s", ErrPoolMintMismatch, i, pool.Address, current)
		}
		q, err := quoteExactIn(pool, current, currentAmount)
		if err != nil {
			return nil, err
		}
		if q.amountOut.Sign() <= 0 {
			return nil, fmt.Errorf("%w: hop %d pool %s", ErrZeroOutput, i, pool.Address)
		}

		hops = append(hops, domain.RouteHop{
			Pool:           pool,
			InputMint:      q.inputMint,
			OutputMint:     q.outputMint,
			AmountIn:       q.amountIn,
			AmountOut:      q.amountOut,
			FeeAmount:      q.feeAmount,
			PriceImpactBps: q.priceImpact,
		})
		impacts = append(impacts, q.priceImpact)

		current = q.outputMint
		currentAmount = q.amountOut
	}

	if !current.Equals(outputMint) {
		return nil, fmt.Errorf("%w: reached %s, want %s", ErrOutputMintMismatch, current, outputMint)
	}

	return &domain.RouteQuote{
		Mode:           domain.ExactIn,
		InputMint:      inputMint,
		OutputMint:     outputMint,
		Hops:           hops,
		TotalAmountIn:  amountIn,
		TotalAmountOut: currentAmount,
		PriceImpactBps: sumPriceImpact(impacts...),
	}, nil
}

// QuotePathExactOut walks path backward from outputMint, turning each hop's
// required input into the previous hop's required output. Hops are returned
// in forward order.
func QuotePathExactOut(path []*domain.Pool, inputMint, outputMint solana.PublicKey, amountOut *big.Int) (*domain.RouteQuote, error) {
	if len(path) == 0 {
		return nil, ErrNoRoute
	}

	hops := make([]domain.RouteHop, len(path))
	impacts := make([]uint16, 0, len(path))
	current := outputMint
	currentAmount := amountOut

	for i := len(path) - 1; i >= 0; i-- {
		pool := path[i]
		if !pool.HasMint(current) {
			return nil, fmt.Errorf("%w: hop %d pool %s token %s", ErrPoolMintMismatch, i, pool.Address, current)
		}
		q, err := quoteExactOut(pool, current, currentAmount)
		if err != nil {
			return nil, err
		}
		if q.unreachable {
			return nil, fmt.Errorf("%w: hop %d pool %s", ErrInsufficientLiquidity, i, pool.Address)
		}
		if q.amountIn.Sign() <= 0 {
			return nil, fmt.Errorf("%w: hop %d pool %s", ErrZeroInput, i, pool.Address)
		}

		hops[i] = domain.RouteHop{
			Pool:           pool,
			InputMint:      q.inputMint,
			OutputMint:     q.outputMint,
			AmountIn:       q.amountIn,
			AmountOut:      q.amountOut,
			FeeAmount:      q.feeAmount,
			PriceImpactBps: q.priceImpact,
		}
		impacts = append(impacts, q.priceImpact)

		current = q.inputMint
		currentAmount = q.amountIn
	}

	if !current.Equals(inputMint) {
		return nil, fmt.Errorf("%w: reached %s, want %s", ErrInputMintMismatch, current, inputMint)
	}

	return &domain.RouteQuote{
		Mode:           domain.ExactOut,
		InputMint:      inputMint,
		OutputMint:     outputMint,
		Hops:           hops,
		TotalAmountIn:  currentAmount,
		TotalAmountOut: amountOut,
		PriceImpactBps: sumPriceImpact(impacts...),
	}, nil
}

func quotePath(path []*domain.Pool, inputMint, outputMint solana.PublicKey, amount *big.Int, mode domain.SwapMode) (*domain.RouteQuote, error) {
	if mode == domain.ExactOut {
		return QuotePathExactOut(path, inputMint, outputMint, amount)
	}
	return QuotePathExactIn(path, inputMint, outputMint, amount)
}

// evaluatePaths quotes every path. Results are indexed by enumeration order
// so selection is identical whether quoting ran sequentially or in parallel.
func (r *Router) evaluatePaths(paths [][]*domain.Pool, inputMint, outputMint solana.PublicKey, amount *big.Int, mode domain.SwapMode) []pathEvaluationResult {
	results := make([]pathEvaluationResult, len(paths))

	// For small path counts, sequential evaluation avoids goroutine overhead
	if len(paths) <= r.parallelThreshold {
		for i, path := range paths {
			route, err := quotePath(path, inputMint, outputMint, amount, mode)
			results[i] = pathEvaluationResult{route: route, err: err}
		}
		return results
	}

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p []*domain.Pool) {
			defer wg.Done()
			route, err := quotePath(p, inputMint, outputMint, amount, mode)
			results[idx] = pathEvaluationResult{route: route, err: err}
		}(i, path)
	}
	wg.Wait()

	return results
}

// selectBest picks the highest output (ExactIn) or lowest input (ExactOut).
// Comparisons are strict, so the first path in enumeration order wins ties.
func selectBest(results []pathEvaluationResult, mode domain.SwapMode) *domain.RouteQuote {
	var best *domain.RouteQuote
	for _, res := range results {
		if res.err != nil || res.route == nil {
			continue
		}
		if best == nil {
			best = res.route
			continue
		}
		if mode == domain.ExactIn {
			if res.route.TotalAmountOut.Cmp(best.TotalAmountOut) > 0 {
				best = res.route
			}
		} else {
			if res.route.TotalAmountIn.Cmp(best.TotalAmountIn) < 0 {
				best = res.route
			}
		}
	}
	return best
}
