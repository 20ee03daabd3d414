package router

import (
	"github.com/holiman/uint256"
)

// Price impact thresholds in basis points (bps)
const (
	PriceImpactLow      uint16 = 100  // 1% - Low impact
	PriceImpactModerate uint16 = 300  // 3% - Moderate impact
	PriceImpactHigh     uint16 = 500  // 5% - High impact
	PriceImpactExtreme  uint16 = 1000 // 10% - Extreme impact

	MaxPriceImpactBps uint16 = 10000
)

// PriceImpactSeverity represents the severity level of price impact
type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"     // < 1%
	SeverityLow      PriceImpactSeverity = "low"      // 1-3%
	SeverityModerate PriceImpactSeverity = "moderate" // 3-5%
	SeverityHigh     PriceImpactSeverity = "high"     // 5-10%
	SeverityExtreme  PriceImpactSeverity = "extreme"  // > 10%
)

// GetPriceImpactSeverity returns the severity level based on price impact bps
func GetPriceImpactSeverity(priceImpactBps uint16) PriceImpactSeverity {
	switch {
	case priceImpactBps < PriceImpactLow:
		return SeverityNone
	case priceImpactBps < PriceImpactModerate:
		return SeverityLow
	case priceImpactBps < PriceImpactHigh:
		return SeverityModerate
	case priceImpactBps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// cpmmPriceImpactBps compares the execution price out/curveIn against the
// spot price y/x, net of fees:
//
//	impact = 10000 - out * x * 10000 / (curveIn * y)
//
// curveIn is the amount that actually reaches the curve (input after fee).
func cpmmPriceImpactBps(curveIn, out, x, y *uint256.Int) uint16 {
	if curveIn.IsZero() || out.IsZero() || x.IsZero() || y.IsZero() {
		return 0
	}

	num := GetU256()
	den := GetU256()
	ratio := GetU256()
	defer func() {
		PutU256(num)
		PutU256(den)
		PutU256(ratio)
	}()

	// Both operands are bounded to 128 bits, so the products fit.
	num.Mul(out, x)
	den.Mul(curveIn, y)
	if !mulDivFloor(num, u256BpsDenom, den, ratio) {
		return 0
	}
	if !ratio.Lt(u256BpsDenom) {
		return 0
	}
	return uint16(10000 - ratio.Uint64())
}

// sumPriceImpact adds per-hop impacts, capped at 100%.
func sumPriceImpact(hops ...uint16) uint16 {
	total := uint32(0)
	for _, bps := range hops {
		total += uint32(bps)
	}
	if total > uint32(MaxPriceImpactBps) {
		return MaxPriceImpactBps
	}
	return uint16(total)
}

// GetPriceImpactWarning returns a user-friendly warning message based on impact
func GetPriceImpactWarning(priceImpactBps uint16) string {
	severity := GetPriceImpactSeverity(priceImpactBps)

	switch severity {
	case SeverityNone:
		return ""
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider reducing trade size"
	case SeverityHigh:
		return "High price impact - you may receive significantly less tokens"
	case SeverityExtreme:
		return "EXTREME price impact - this trade will severely impact the market price"
	default:
		return ""
	}
}
