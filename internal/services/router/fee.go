package router

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

// FeeRateDenominator is 100% expressed in parts-per-million.
const FeeRateDenominator = 1_000_000

// EffectiveFeePpm returns the total fee charged on input paid in inputMint:
// the trade fee plus the creator fee when it applies to that side, capped at 100%.
func EffectiveFeePpm(pool *domain.Pool, inputMint solana.PublicKey) (uint32, error) {
	isA := pool.TokenMintA.Equals(inputMint)
	if !isA && !pool.TokenMintB.Equals(inputMint) {
		return 0, fmt.Errorf("%w: %s not in pool %s", ErrMintNotInPool, inputMint, pool.Address)
	}

	fee := uint64(pool.Fees.TradeFeeRatePpm)
	if creatorFeeApplies(pool, isA) {
		fee += uint64(pool.Fees.CreatorFeeRatePpm)
	}
	if fee > FeeRateDenominator {
		fee = FeeRateDenominator
	}
	return uint32(fee), nil
}

func creatorFeeApplies(pool *domain.Pool, inputIsA bool) bool {
	if !pool.CreatorFeeEnabled {
		return false
	}
	switch pool.CreatorFeeMode {
	case domain.CreatorFeeOnBoth:
		return true
	case domain.CreatorFeeOnlyTokenA:
		return inputIsA
	case domain.CreatorFeeOnlyTokenB:
		return !inputIsA
	default:
		return false
	}
}
