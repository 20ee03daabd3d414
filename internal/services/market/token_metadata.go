package market

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
)

var ErrUnknownMint = errors.New("mint account not found")

// TokenMetadataResolver resolves mint decimals and owning token program,
// caching results in a bounded LRU.
type TokenMetadataResolver struct {
	reader AccountReader
	cache  *BoundedLRUCache[solana.PublicKey, domain.TokenMetadata]
}

func NewTokenMetadataResolver(reader AccountReader, cacheSize int) *TokenMetadataResolver {
	cache := NewBoundedLRUCache[solana.PublicKey, domain.TokenMetadata](cacheSize)
	cache.OnEvict(func(mint solana.PublicKey, _ domain.TokenMetadata) {
		log.Debug().Str("mint", mint.String()).Msg("[tokenMetadata] evicted")
	})
	return &TokenMetadataResolver{
		reader: reader,
		cache:  cache,
	}
}

// Remember stores metadata learned elsewhere, e.g. from pool state decimals.
// A known token program is never overwritten by a zero one.
func (r *TokenMetadataResolver) Remember(meta domain.TokenMetadata) {
	if prev, ok := r.cache.Peek(meta.Mint); ok && meta.TokenProgram.IsZero() {
		meta.TokenProgram = prev.TokenProgram
	}
	r.cache.Set(meta.Mint, meta)
	metrics.TokenMetadataCacheSize.Set(float64(r.cache.Len()))
}

// RememberPools seeds the cache with the mint decimals carried by pools.
func (r *TokenMetadataResolver) RememberPools(pools []*domain.Pool) {
	for _, p := range pools {
		if p == nil {
			continue
		}
		if _, ok := r.cache.Peek(p.TokenMintA); !ok {
			r.Remember(domain.TokenMetadata{Mint: p.TokenMintA, Decimals: p.TokenDecimalsA})
		}
		if _, ok := r.cache.Peek(p.TokenMintB); !ok {
			r.Remember(domain.TokenMetadata{Mint: p.TokenMintB, Decimals: p.TokenDecimalsB})
		}
	}
}

func (r *TokenMetadataResolver) Get(ctx context.Context, mint solana.PublicKey) (domain.TokenMetadata, error) {
	out, err := r.Resolve(ctx, mint)
	if err != nil {
		return domain.TokenMetadata{}, err
	}
	return out[mint], nil
}

// Resolve returns metadata for every mint, reading uncached mints in one call.
func (r *TokenMetadataResolver) Resolve(ctx context.Context, mints ...solana.PublicKey) (map[solana.PublicKey]domain.TokenMetadata, error) {
	out := make(map[solana.PublicKey]domain.TokenMetadata, len(mints))
	missing := make([]solana.PublicKey, 0, len(mints))
	for _, mint := range mints {
		if meta, ok := r.cache.Get(mint); ok {
			out[mint] = meta
			continue
		}
		missing = append(missing, mint)
	}
	if len(missing) == 0 {
		return out, nil
	}
	missing = uniqueKeys(missing)

	accounts, err := r.reader.GetAccounts(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("fetch mints: %w", err)
	}
	if len(accounts) != len(missing) {
		return nil, fmt.Errorf("reader returned %d accounts for %d mints", len(accounts), len(missing))
	}

	for i, acc := range accounts {
		mint := missing[i]
		meta, err := decodeMintMetadata(mint, acc)
		if err != nil {
			return nil, err
		}
		r.Remember(meta)
		out[mint] = meta
	}
	return out, nil
}

func decodeMintMetadata(mint solana.PublicKey, acc *domain.RawAccount) (domain.TokenMetadata, error) {
	if acc == nil {
		return domain.TokenMetadata{}, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	if !common.IsTokenProgram(acc.Owner) {
		return domain.TokenMetadata{}, fmt.Errorf("%w: %s is owned by %s", ErrInvalidAccountData, mint, acc.Owner)
	}
	var state token.Mint
	if err := bin.NewBinDecoder(acc.Data).Decode(&state); err != nil {
		return domain.TokenMetadata{}, fmt.Errorf("decode mint %s: %w", mint, err)
	}
	return domain.TokenMetadata{
		Mint:         mint,
		Decimals:     state.Decimals,
		TokenProgram: acc.Owner,
	}, nil
}

func (r *TokenMetadataResolver) CacheSize() int {
	return r.cache.Len()
}
