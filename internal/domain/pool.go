package domain

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
)

type PoolType uint8

const (
	PoolTypeCPMM PoolType = iota
	PoolTypeCLMM
)

func (p PoolType) String() string {
	switch p {
	case PoolTypeCPMM:
		return "CPMM"
	case PoolTypeCLMM:
		return "CLMM"
	default:
		return "UNKNOWN"
	}
}

// CreatorFeeMode selects which input side pays the creator fee.
type CreatorFeeMode uint8

const (
	CreatorFeeOnBoth CreatorFeeMode = iota
	CreatorFeeOnlyTokenA
	CreatorFeeOnlyTokenB
)

func (m CreatorFeeMode) String() string {
	switch m {
	case CreatorFeeOnBoth:
		return "Both"
	case CreatorFeeOnlyTokenA:
		return "OnlyTokenA"
	case CreatorFeeOnlyTokenB:
		return "OnlyTokenB"
	default:
		return "UNKNOWN"
	}
}

// FeeConfig rates are parts-per-million (1_000_000 = 100%).
type FeeConfig struct {
	TradeFeeRatePpm   uint32 `json:"tradeFeeRatePpm"`
	CreatorFeeRatePpm uint32 `json:"creatorFeeRatePpm"`
}

// Pool is a quoting-ready constant-product pool. It is built fresh for every
// routing request and must not be mutated once handed to the router.
type Pool struct {
	Address           solana.PublicKey `json:"address"`
	Type              PoolType         `json:"type"`
	ProgramID         solana.PublicKey `json:"programId"`
	TokenMintA        solana.PublicKey `json:"tokenMintA"`
	TokenMintB        solana.PublicKey `json:"tokenMintB"`
	TokenVaultA       solana.PublicKey `json:"tokenVaultA"`
	TokenVaultB       solana.PublicKey `json:"tokenVaultB"`
	TokenDecimalsA    uint8            `json:"tokenDecimalsA"`
	TokenDecimalsB    uint8            `json:"tokenDecimalsB"`
	Fees              FeeConfig        `json:"fees"`
	CreatorFeeEnabled bool             `json:"creatorFeeEnabled"`
	CreatorFeeMode    CreatorFeeMode   `json:"creatorFeeMode"`
	ReserveA          *big.Int         `json:"reserveA"`
	ReserveB          *big.Int         `json:"reserveB"`
	LastUpdatedSlot   uint64           `json:"lastUpdatedSlot"`
}

// HasMint reports whether mint is one of the pool's two tokens.
func (p *Pool) HasMint(mint solana.PublicKey) bool {
	return p.TokenMintA.Equals(mint) || p.TokenMintB.Equals(mint)
}

// OtherMint returns the token on the opposite side of mint.
func (p *Pool) OtherMint(mint solana.PublicKey) (solana.PublicKey, bool) {
	switch {
	case p.TokenMintA.Equals(mint):
		return p.TokenMintB, true
	case p.TokenMintB.Equals(mint):
		return p.TokenMintA, true
	default:
		return solana.PublicKey{}, false
	}
}

// ReservesFor returns (input reserve, output reserve) for a swap paying in inputMint.
func (p *Pool) ReservesFor(inputMint solana.PublicKey) (*big.Int, *big.Int, bool) {
	switch {
	case p.TokenMintA.Equals(inputMint):
		return p.ReserveA, p.ReserveB, true
	case p.TokenMintB.Equals(inputMint):
		return p.ReserveB, p.ReserveA, true
	default:
		return nil, nil, false
	}
}

// DecimalsFor returns the display precision of mint within this pool.
func (p *Pool) DecimalsFor(mint solana.PublicKey) (uint8, bool) {
	switch {
	case p.TokenMintA.Equals(mint):
		return p.TokenDecimalsA, true
	case p.TokenMintB.Equals(mint):
		return p.TokenDecimalsB, true
	default:
		return 0, false
	}
}

// IsRoutable reports whether the pool can enter the routing graph.
func (p *Pool) IsRoutable() bool {
	if p == nil || p.Type != PoolTypeCPMM {
		return false
	}
	if p.TokenMintA.Equals(p.TokenMintB) {
		return false
	}
	return p.ReserveA != nil && p.ReserveB != nil && p.ReserveA.Sign() > 0 && p.ReserveB.Sign() > 0
}
