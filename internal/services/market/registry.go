package market

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
)

// PoolStore persists tracked pool configs across restarts.
type PoolStore interface {
	SaveTrackedPool(pool domain.TrackedPool) error
	SaveTrackedPoolBatch(pools []domain.TrackedPool) error
	LoadTrackedPools() ([]domain.TrackedPool, error)
	Close() error
}

// TrackedRegistry is the set of pools the service quotes against. Entries
// seeded from configuration carry only an address until their first
// successful load fills in the rest.
type TrackedRegistry struct {
	pools *ShardedTrackedMap
	store PoolStore
}

// NewTrackedRegistry creates a registry; store may be nil.
func NewTrackedRegistry(store PoolStore) *TrackedRegistry {
	return &TrackedRegistry{
		pools: NewShardedTrackedMap(),
		store: store,
	}
}

// Restore loads persisted pools into the registry.
func (r *TrackedRegistry) Restore() (int, error) {
	if r.store == nil {
		return 0, nil
	}
	pools, err := r.store.LoadTrackedPools()
	if err != nil {
		return 0, fmt.Errorf("restore tracked pools: %w", err)
	}
	for _, p := range pools {
		r.pools.Put(p)
	}
	metrics.TrackedPoolCount.Set(float64(r.pools.Len()))
	return len(pools), nil
}

// Seed adds bare addresses without overwriting pools already known.
func (r *TrackedRegistry) Seed(addresses []solana.PublicKey) int {
	added := 0
	for _, addr := range addresses {
		if _, ok := r.pools.Get(addr); ok {
			continue
		}
		r.pools.Put(domain.TrackedPool{Address: addr})
		added++
	}
	metrics.TrackedPoolCount.Set(float64(r.pools.Len()))
	return added
}

// Track records fully loaded pool configs and persists them.
func (r *TrackedRegistry) Track(pools ...domain.TrackedPool) error {
	changed := make([]domain.TrackedPool, 0, len(pools))
	for _, p := range pools {
		if prev, ok := r.pools.Get(p.Address); ok && prev == p {
			continue
		}
		r.pools.Put(p)
		changed = append(changed, p)
	}
	metrics.TrackedPoolCount.Set(float64(r.pools.Len()))

	if r.store == nil || len(changed) == 0 {
		return nil
	}
	if len(changed) == 1 {
		return r.store.SaveTrackedPool(changed[0])
	}
	return r.store.SaveTrackedPoolBatch(changed)
}

func (r *TrackedRegistry) Get(address solana.PublicKey) (domain.TrackedPool, bool) {
	return r.pools.Get(address)
}

func (r *TrackedRegistry) Addresses() []solana.PublicKey {
	all := r.pools.Snapshot()
	out := make([]solana.PublicKey, len(all))
	for i, p := range all {
		out[i] = p.Address
	}
	return out
}

func (r *TrackedRegistry) All() []domain.TrackedPool {
	return r.pools.Snapshot()
}

func (r *TrackedRegistry) Len() int {
	return r.pools.Len()
}

func (r *TrackedRegistry) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
