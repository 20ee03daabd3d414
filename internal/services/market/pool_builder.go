package market

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

// VaultBalances are the raw token account amounts of a pool's two vaults.
type VaultBalances struct {
	Token0 *big.Int
	Token1 *big.Int
	Slot   uint64
}

// BuildPool turns raw pool state, its fee config and live vault balances into
// a quotable pool. Accrued protocol, fund and (when enabled) creator fees sit
// in the vaults but belong to nobody trading, so they are subtracted. It
// returns nil when swaps are disabled or either net reserve is not positive.
func BuildPool(state *CpmmPoolState, cfg *AmmConfig, poolAddress, programID solana.PublicKey, vaults VaultBalances) *domain.Pool {
	if state == nil || cfg == nil || vaults.Token0 == nil || vaults.Token1 == nil {
		return nil
	}
	if state.SwapDisabled() {
		return nil
	}

	reserveA := netReserve(vaults.Token0, state.ProtocolFeesToken0, state.FundFeesToken0, state.EnableCreatorFee, state.CreatorFeesToken0)
	reserveB := netReserve(vaults.Token1, state.ProtocolFeesToken1, state.FundFeesToken1, state.EnableCreatorFee, state.CreatorFeesToken1)
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil
	}

	return &domain.Pool{
		Address:        poolAddress,
		Type:           domain.PoolTypeCPMM,
		ProgramID:      programID,
		TokenMintA:     state.Token0Mint,
		TokenMintB:     state.Token1Mint,
		TokenVaultA:    state.Token0Vault,
		TokenVaultB:    state.Token1Vault,
		TokenDecimalsA: state.Mint0Decimals,
		TokenDecimalsB: state.Mint1Decimals,
		Fees: domain.FeeConfig{
			TradeFeeRatePpm:   clampRatePpm(cfg.TradeFeeRate),
			CreatorFeeRatePpm: clampRatePpm(cfg.CreatorFeeRate),
		},
		CreatorFeeEnabled: state.EnableCreatorFee,
		CreatorFeeMode:    creatorFeeMode(state.CreatorFeeOn),
		ReserveA:          reserveA,
		ReserveB:          reserveB,
		LastUpdatedSlot:   vaults.Slot,
	}
}

func netReserve(vault *big.Int, protocolFees, fundFees uint64, creatorEnabled bool, creatorFees uint64) *big.Int {
	r := new(big.Int).Set(vault)
	r.Sub(r, new(big.Int).SetUint64(protocolFees))
	r.Sub(r, new(big.Int).SetUint64(fundFees))
	if creatorEnabled {
		r.Sub(r, new(big.Int).SetUint64(creatorFees))
	}
	return r
}

func clampRatePpm(rate uint64) uint32 {
	if rate > 1_000_000 {
		return 1_000_000
	}
	return uint32(rate)
}

func creatorFeeMode(on uint8) domain.CreatorFeeMode {
	switch on {
	case 1:
		return domain.CreatorFeeOnlyTokenA
	case 2:
		return domain.CreatorFeeOnlyTokenB
	default:
		return domain.CreatorFeeOnBoth
	}
}
