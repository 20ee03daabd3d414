package router

import (
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

// Pre-computed constants
var (
	// BPS_DENOM = 10000 for basis points
	BPS_DENOM = big.NewInt(10000)

	u256BpsDenom = uint256.NewInt(10000)
	u256FeeBase  = uint256.NewInt(FeeRateDenominator)

	// u128Max bounds every operand the quoter accepts.
	u128Max = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))
)

var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

// GetU256 gets a uint256.Int from the pool
func GetU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

// PutU256 returns a uint256.Int to the pool
func PutU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}

// u128FromBig loads b into out. It reports false for nil, negative, or
// values above 2^128-1.
func u128FromBig(b *big.Int, out *uint256.Int) bool {
	if b == nil || b.Sign() < 0 || b.BitLen() > 128 {
		out.Clear()
		return false
	}
	out.SetFromBig(b)
	return true
}

// mulDivFloor sets out = floor(x * y / d) with a 512-bit intermediate.
// It reports false when d is zero or the quotient does not fit 256 bits.
func mulDivFloor(x, y, d, out *uint256.Int) bool {
	if d.IsZero() {
		out.Clear()
		return false
	}
	if _, overflow := out.MulDivOverflow(x, y, d); overflow {
		out.Clear()
		return false
	}
	return true
}
