// Package snapshot stores a set of quotable pools in a JSON file so routes can
// be computed offline.
package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/cpmm-router/internal/domain"
)

// PoolRecord is the file form of one pool. Reserves are decimal strings.
type PoolRecord struct {
	Address           string `json:"address"`
	ProgramID         string `json:"programId,omitempty"`
	TokenMintA        string `json:"tokenMintA"`
	TokenMintB        string `json:"tokenMintB"`
	DecimalsA         uint8  `json:"decimalsA"`
	DecimalsB         uint8  `json:"decimalsB"`
	ReserveA          string `json:"reserveA"`
	ReserveB          string `json:"reserveB"`
	TradeFeeRatePpm   uint32 `json:"tradeFeeRatePpm"`
	CreatorFeeRatePpm uint32 `json:"creatorFeeRatePpm,omitempty"`
	CreatorFeeEnabled bool   `json:"creatorFeeEnabled,omitempty"`
	CreatorFeeMode    string `json:"creatorFeeMode,omitempty"`
	Slot              uint64 `json:"slot,omitempty"`
}

type File struct {
	Pools []PoolRecord `json:"pools"`
}

// FilePool serves the pools of a snapshot file in place of live chain reads.
type FilePool struct {
	pools    []*domain.Pool
	decimals map[solana.PublicKey]uint8
}

func Load(path string) (*FilePool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var file File
	if err := sonic.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return FromRecords(file.Pools)
}

func FromRecords(records []PoolRecord) (*FilePool, error) {
	fp := &FilePool{
		pools:    make([]*domain.Pool, 0, len(records)),
		decimals: make(map[solana.PublicKey]uint8),
	}
	for i, rec := range records {
		pool, err := rec.toPool()
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, rec.Address, err)
		}
		fp.pools = append(fp.pools, pool)
		fp.decimals[pool.TokenMintA] = pool.TokenDecimalsA
		fp.decimals[pool.TokenMintB] = pool.TokenDecimalsB
	}
	return fp, nil
}

// FreshPools returns copies so callers can never change the loaded snapshot.
func (fp *FilePool) FreshPools(ctx context.Context) ([]*domain.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*domain.Pool, len(fp.pools))
	for i, p := range fp.pools {
		cp := *p
		cp.ReserveA = new(big.Int).Set(p.ReserveA)
		cp.ReserveB = new(big.Int).Set(p.ReserveB)
		out[i] = &cp
	}
	return out, nil
}

// TokenMetadata answers from the decimals recorded on the pools. Mints that
// appear in no pool are left out of the result.
func (fp *FilePool) TokenMetadata(_ context.Context, mints ...solana.PublicKey) (map[solana.PublicKey]domain.TokenMetadata, error) {
	out := make(map[solana.PublicKey]domain.TokenMetadata, len(mints))
	for _, mint := range mints {
		if dec, ok := fp.decimals[mint]; ok {
			out[mint] = domain.TokenMetadata{Mint: mint, Decimals: dec}
		}
	}
	return out, nil
}

func (fp *FilePool) Len() int {
	return len(fp.pools)
}

// Write stores pools at path, creating the parent directory.
func Write(path string, pools []*domain.Pool) error {
	file := File{Pools: make([]PoolRecord, 0, len(pools))}
	for _, p := range pools {
		file.Pools = append(file.Pools, recordFromPool(p))
	}
	data, err := sonic.ConfigStd.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func recordFromPool(p *domain.Pool) PoolRecord {
	rec := PoolRecord{
		Address:           p.Address.String(),
		TokenMintA:        p.TokenMintA.String(),
		TokenMintB:        p.TokenMintB.String(),
		DecimalsA:         p.TokenDecimalsA,
		DecimalsB:         p.TokenDecimalsB,
		ReserveA:          p.ReserveA.String(),
		ReserveB:          p.ReserveB.String(),
		TradeFeeRatePpm:   p.Fees.TradeFeeRatePpm,
		CreatorFeeRatePpm: p.Fees.CreatorFeeRatePpm,
		CreatorFeeEnabled: p.CreatorFeeEnabled,
		Slot:              p.LastUpdatedSlot,
	}
	if !p.ProgramID.IsZero() {
		rec.ProgramID = p.ProgramID.String()
	}
	if p.CreatorFeeEnabled {
		rec.CreatorFeeMode = p.CreatorFeeMode.String()
	}
	return rec
}

func (rec PoolRecord) toPool() (*domain.Pool, error) {
	address, err := solana.PublicKeyFromBase58(rec.Address)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	mintA, err := solana.PublicKeyFromBase58(rec.TokenMintA)
	if err != nil {
		return nil, fmt.Errorf("tokenMintA: %w", err)
	}
	mintB, err := solana.PublicKeyFromBase58(rec.TokenMintB)
	if err != nil {
		return nil, fmt.Errorf("tokenMintB: %w", err)
	}
	var programID solana.PublicKey
	if rec.ProgramID != "" {
		if programID, err = solana.PublicKeyFromBase58(rec.ProgramID); err != nil {
			return nil, fmt.Errorf("programId: %w", err)
		}
	}

	reserveA, ok := new(big.Int).SetString(rec.ReserveA, 10)
	if !ok || reserveA.Sign() < 0 {
		return nil, fmt.Errorf("reserveA %q is not a non-negative integer", rec.ReserveA)
	}
	reserveB, ok := new(big.Int).SetString(rec.ReserveB, 10)
	if !ok || reserveB.Sign() < 0 {
		return nil, fmt.Errorf("reserveB %q is not a non-negative integer", rec.ReserveB)
	}

	mode, err := parseCreatorFeeMode(rec.CreatorFeeMode)
	if err != nil {
		return nil, err
	}

	return &domain.Pool{
		Address:        address,
		Type:           domain.PoolTypeCPMM,
		ProgramID:      programID,
		TokenMintA:     mintA,
		TokenMintB:     mintB,
		TokenDecimalsA: rec.DecimalsA,
		TokenDecimalsB: rec.DecimalsB,
		Fees: domain.FeeConfig{
			TradeFeeRatePpm:   rec.TradeFeeRatePpm,
			CreatorFeeRatePpm: rec.CreatorFeeRatePpm,
		},
		CreatorFeeEnabled: rec.CreatorFeeEnabled,
		CreatorFeeMode:    mode,
		ReserveA:          reserveA,
		ReserveB:          reserveB,
		LastUpdatedSlot:   rec.Slot,
	}, nil
}

func parseCreatorFeeMode(s string) (domain.CreatorFeeMode, error) {
	switch s {
	case "", "Both":
		return domain.CreatorFeeOnBoth, nil
	case "OnlyTokenA":
		return domain.CreatorFeeOnlyTokenA, nil
	case "OnlyTokenB":
		return domain.CreatorFeeOnlyTokenB, nil
	default:
		return 0, fmt.Errorf("unknown creatorFeeMode %q", s)
	}
}
