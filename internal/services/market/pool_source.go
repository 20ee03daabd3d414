package market

import (
	"context"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFetchBatchSize = 100
	maxConcurrentFetches  = 4

	// SPL token account: mint(32) owner(32) amount(u64)
	tokenAccountAmountOffset = 64
	tokenAccountMinSize      = 165
)

// AccountReader fetches accounts by key. The result has one entry per key,
// nil for accounts that do not exist.
type AccountReader interface {
	GetAccounts(ctx context.Context, keys []solana.PublicKey) ([]*domain.RawAccount, error)
}

// LoadResult is the outcome of one fresh pool load.
type LoadResult struct {
	Pools   []*domain.Pool
	Tracked []domain.TrackedPool
	Skipped map[solana.PublicKey]string
}

// PoolSource turns pool addresses into quotable pools using fresh account reads.
type PoolSource struct {
	reader    AccountReader
	programID solana.PublicKey
	batchSize int
}

func NewPoolSource(reader AccountReader, programID solana.PublicKey, batchSize int) *PoolSource {
	if batchSize <= 0 || batchSize > defaultFetchBatchSize {
		batchSize = defaultFetchBatchSize
	}
	return &PoolSource{
		reader:    reader,
		programID: programID,
		batchSize: batchSize,
	}
}

type decodedPool struct {
	address solana.PublicKey
	state   *CpmmPoolState
	slot    uint64
}

// LoadPools reads pool states, then their fee configs and vaults, and builds a
// domain pool for every address that is owned by the program, decodes cleanly
// and has swappable liquidity. Everything else lands in Skipped with a reason.
func (s *PoolSource) LoadPools(ctx context.Context, addresses []solana.PublicKey) (*LoadResult, error) {
	result := &LoadResult{Skipped: make(map[solana.PublicKey]string)}
	if len(addresses) == 0 {
		return result, nil
	}

	addresses = uniqueKeys(addresses)
	accounts, err := s.fetch(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch pool states: %w", err)
	}

	decoded := make([]decodedPool, 0, len(addresses))
	for i, acc := range accounts {
		addr := addresses[i]
		switch {
		case acc == nil:
			s.skip(result, addr, "missing")
			continue
		case !acc.Owner.Equals(s.programID):
			s.skip(result, addr, "wrong_owner")
			continue
		}
		state, err := DecodePoolState(acc.Data)
		if err != nil {
			log.Debug().Err(err).Str("pool", addr.String()).Msg("[poolSource] decode failed")
			s.skip(result, addr, "decode")
			continue
		}
		decoded = append(decoded, decodedPool{address: addr, state: state, slot: acc.Slot})
	}
	if len(decoded) == 0 {
		return result, nil
	}

	// Fee configs are shared between pools, vaults are not.
	configKeys := make([]solana.PublicKey, 0, len(decoded))
	for _, p := range decoded {
		configKeys = append(configKeys, p.state.AmmConfig)
	}
	configKeys = uniqueKeys(configKeys)
	keys := make([]solana.PublicKey, 0, len(configKeys)+2*len(decoded))
	keys = append(keys, configKeys...)
	for _, p := range decoded {
		keys = append(keys, p.state.Token0Vault, p.state.Token1Vault)
	}

	related, err := s.fetch(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch configs and vaults: %w", err)
	}

	configs := make(map[solana.PublicKey]*AmmConfig, len(configKeys))
	for i, key := range configKeys {
		if related[i] == nil || !related[i].Owner.Equals(s.programID) {
			continue
		}
		cfg, err := DecodeAmmConfig(related[i].Data)
		if err != nil {
			log.Debug().Err(err).Str("config", key.String()).Msg("[poolSource] amm config decode failed")
			continue
		}
		configs[key] = cfg
	}

	vaults := related[len(configKeys):]
	for i, p := range decoded {
		cfg, ok := configs[p.state.AmmConfig]
		if !ok {
			s.skip(result, p.address, "config")
			continue
		}
		balances, err := vaultBalances(vaults[2*i], vaults[2*i+1])
		if err != nil {
			log.Debug().Err(err).Str("pool", p.address.String()).Msg("[poolSource] vault read failed")
			s.skip(result, p.address, "vault")
			continue
		}
		if p.state.SwapDisabled() {
			s.skip(result, p.address, "swap_disabled")
			continue
		}
		pool := BuildPool(p.state, cfg, p.address, s.programID, balances)
		if pool == nil {
			s.skip(result, p.address, "empty_reserves")
			continue
		}
		if pool.LastUpdatedSlot < p.slot {
			pool.LastUpdatedSlot = p.slot
		}
		result.Pools = append(result.Pools, pool)
		result.Tracked = append(result.Tracked, TrackedFromState(p.address, s.programID, p.state))
	}

	metrics.PoolsFetched.WithLabelValues("ok").Add(float64(len(result.Pools)))
	return result, nil
}

func (s *PoolSource) skip(result *LoadResult, addr solana.PublicKey, reason string) {
	result.Skipped[addr] = reason
	metrics.PoolsFetched.WithLabelValues("skipped").Inc()
	metrics.PoolsExcluded.WithLabelValues(reason).Inc()
}

// fetch splits keys into batches and reads them concurrently, preserving order.
func (s *PoolSource) fetch(ctx context.Context, keys []solana.PublicKey) ([]*domain.RawAccount, error) {
	out := make([]*domain.RawAccount, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for start := 0; start < len(keys); start += s.batchSize {
		end := start + s.batchSize
		if end > len(keys) {
			end = len(keys)
		}
		start := start
		g.Go(func() error {
			accs, err := s.reader.GetAccounts(gctx, keys[start:end])
			if err != nil {
				return err
			}
			if len(accs) != end-start {
				return fmt.Errorf("reader returned %d accounts for %d keys", len(accs), end-start)
			}
			copy(out[start:end], accs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func vaultBalances(vault0, vault1 *domain.RawAccount) (VaultBalances, error) {
	amount0, err := TokenAccountAmount(vault0)
	if err != nil {
		return VaultBalances{}, fmt.Errorf("vault0: %w", err)
	}
	amount1, err := TokenAccountAmount(vault1)
	if err != nil {
		return VaultBalances{}, fmt.Errorf("vault1: %w", err)
	}
	slot := vault0.Slot
	if vault1.Slot > slot {
		slot = vault1.Slot
	}
	return VaultBalances{
		Token0: new(big.Int).SetUint64(amount0),
		Token1: new(big.Int).SetUint64(amount1),
		Slot:   slot,
	}, nil
}

// TokenAccountAmount reads the amount of an SPL Token or Token-2022 account.
func TokenAccountAmount(acc *domain.RawAccount) (uint64, error) {
	if acc == nil {
		return 0, fmt.Errorf("%w: token account missing", ErrInvalidAccountData)
	}
	if !common.IsTokenProgram(acc.Owner) {
		return 0, fmt.Errorf("%w: not a token account (owner %s)", ErrInvalidAccountData, acc.Owner)
	}
	if len(acc.Data) < tokenAccountMinSize {
		return 0, fmt.Errorf("%w: token account is %d bytes", ErrInvalidAccountData, len(acc.Data))
	}
	return bin.NewBinDecoder(acc.Data[tokenAccountAmountOffset:]).ReadUint64(bin.LE)
}

// TrackedFromState extracts the persistable configuration of a pool.
func TrackedFromState(address, programID solana.PublicKey, state *CpmmPoolState) domain.TrackedPool {
	return domain.TrackedPool{
		Address:     address,
		ProgramID:   programID,
		TokenMintA:  state.Token0Mint,
		TokenMintB:  state.Token1Mint,
		TokenVaultA: state.Token0Vault,
		TokenVaultB: state.Token1Vault,
		AmmConfig:   state.AmmConfig,
		DecimalsA:   state.Mint0Decimals,
		DecimalsB:   state.Mint1Decimals,
	}
}

func uniqueKeys(keys []solana.PublicKey) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	out := make([]solana.PublicKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
