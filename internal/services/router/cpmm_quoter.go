package router

import (
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
)

// unreachableAmount is the exact-out result for a hop that cannot deliver
// the requested output: 2^128-1.
var unreachableAmount = u128Max.ToBig()

// UnreachableAmount returns a fresh copy of the exact-out sentinel.
func UnreachableAmount() *big.Int {
	return new(big.Int).Set(unreachableAmount)
}

// IsUnreachable reports whether amount is the exact-out sentinel.
func IsUnreachable(amount *big.Int) bool {
	return amount != nil && amount.Cmp(unreachableAmount) == 0
}

// cpmmQuoteCounter for sampling metrics (1/128 calls)
var cpmmQuoteCounter atomic.Uint64

// hopQuote is a single pool swap resolved in both directions.
type hopQuote struct {
	inputMint   solana.PublicKey
	outputMint  solana.PublicKey
	amountIn    *big.Int
	amountOut   *big.Int
	feeAmount   *big.Int
	priceImpact uint16
	unreachable bool
}

// QuoteOutSingle returns the output of swapping amountIn of inputMint through pool.
func QuoteOutSingle(pool *domain.Pool, inputMint solana.PublicKey, amountIn *big.Int) (*big.Int, error) {
	q, err := quoteExactIn(pool, inputMint, amountIn)
	if err != nil {
		return nil, err
	}
	return q.amountOut, nil
}

// QuoteInSingle returns the input needed to receive amountOut of outputMint
// from pool, or the UnreachableAmount sentinel when the pool cannot supply it.
func QuoteInSingle(pool *domain.Pool, outputMint solana.PublicKey, amountOut *big.Int) (*big.Int, error) {
	q, err := quoteExactOut(pool, outputMint, amountOut)
	if err != nil {
		return nil, err
	}
	return q.amountIn, nil
}

func quoteExactIn(pool *domain.Pool, inputMint solana.PublicKey, amountIn *big.Int) (hopQuote, error) {
	sample := cpmmQuoteCounter.Add(1)&0x7F == 0
	var start time.Time
	if sample {
		start = time.Now()
	}

	fee, err := EffectiveFeePpm(pool, inputMint)
	if err != nil {
		return hopQuote{}, err
	}
	outputMint, _ := pool.OtherMint(inputMint)
	reserveIn, reserveOut, _ := pool.ReservesFor(inputMint)

	q := hopQuote{
		inputMint:  inputMint,
		outputMint: outputMint,
		amountIn:   amountIn,
		amountOut:  new(big.Int),
		feeAmount:  new(big.Int),
	}
	if amountIn == nil {
		q.amountIn = new(big.Int)
	}

	x, y, in := GetU256(), GetU256(), GetU256()
	afterFee, out, tmp := GetU256(), GetU256(), GetU256()
	defer func() {
		PutU256(x)
		PutU256(y)
		PutU256(in)
		PutU256(afterFee)
		PutU256(out)
		PutU256(tmp)
	}()

	if !u128FromBig(q.amountIn, in) || !u128FromBig(reserveIn, x) || !u128FromBig(reserveOut, y) {
		return q, nil
	}
	if in.IsZero() || x.IsZero() || y.IsZero() {
		return q, nil
	}

	// afterFee = amountIn * (1e6 - fee) / 1e6
	tmp.SetUint64(uint64(FeeRateDenominator - fee))
	if !mulDivFloor(in, tmp, u256FeeBase, afterFee) {
		return q, nil
	}

	// out = afterFee * y / (x + afterFee)
	tmp.Add(x, afterFee)
	if !mulDivFloor(afterFee, y, tmp, out) {
		return q, nil
	}

	q.amountOut = out.ToBig()
	q.feeAmount = tmp.Sub(in, afterFee).ToBig()
	q.priceImpact = cpmmPriceImpactBps(afterFee, out, x, y)

	if sample {
		metrics.CpmmQuoteDuration.Observe(time.Since(start).Seconds())
	}
	return q, nil
}

func quoteExactOut(pool *domain.Pool, outputMint solana.PublicKey, amountOut *big.Int) (hopQuote, error) {
	sample := cpmmQuoteCounter.Add(1)&0x7F == 0
	var start time.Time
	if sample {
		start = time.Now()
	}

	inputMint, ok := pool.OtherMint(outputMint)
	if !ok {
		return hopQuote{}, fmt.Errorf("%w: %s not in pool %s", ErrMintNotInPool, outputMint, pool.Address)
	}
	fee, err := EffectiveFeePpm(pool, inputMint)
	if err != nil {
		return hopQuote{}, err
	}
	reserveIn, reserveOut, _ := pool.ReservesFor(inputMint)

	q := hopQuote{
		inputMint:  inputMint,
		outputMint: outputMint,
		amountIn:   new(big.Int),
		amountOut:  amountOut,
		feeAmount:  new(big.Int),
	}
	if amountOut == nil {
		q.amountOut = new(big.Int)
	}
	if q.amountOut.Sign() == 0 {
		return q, nil
	}

	unreachable := func() (hopQuote, error) {
		q.amountIn = UnreachableAmount()
		q.unreachable = true
		return q, nil
	}

	x, y, out := GetU256(), GetU256(), GetU256()
	beforeFee, in, tmp := GetU256(), GetU256(), GetU256()
	defer func() {
		PutU256(x)
		PutU256(y)
		PutU256(out)
		PutU256(beforeFee)
		PutU256(in)
		PutU256(tmp)
	}()

	if !u128FromBig(q.amountOut, out) || !u128FromBig(reserveIn, x) || !u128FromBig(reserveOut, y) {
		return unreachable()
	}
	if x.IsZero() || y.IsZero() || !out.Lt(y) || fee >= FeeRateDenominator {
		return unreachable()
	}

	// beforeFee = amountOut * x / (y - amountOut)
	tmp.Sub(y, out)
	if !mulDivFloor(out, x, tmp, beforeFee) {
		return unreachable()
	}

	// in = beforeFee * 1e6 / (1e6 - fee)
	tmp.SetUint64(uint64(FeeRateDenominator - fee))
	if !mulDivFloor(beforeFee, u256FeeBase, tmp, in) || !in.Lt(u128Max) {
		return unreachable()
	}

	q.amountIn = in.ToBig()
	q.feeAmount = tmp.Sub(in, beforeFee).ToBig()
	q.priceImpact = cpmmPriceImpactBps(beforeFee, out, x, y)

	if sample {
		metrics.CpmmQuoteDuration.Observe(time.Since(start).Seconds())
	}
	return q, nil
}
