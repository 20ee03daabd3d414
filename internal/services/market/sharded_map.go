package market

import (
	"bytes"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

const numShards = 16

// ShardedTrackedMap holds tracked pool configs keyed by pool address, split
// across shards so admin writes do not block concurrent quote reads.
type ShardedTrackedMap struct {
	shards [numShards]trackedShard
}

type trackedShard struct {
	mu    sync.RWMutex
	pools map[solana.PublicKey]domain.TrackedPool
}

func NewShardedTrackedMap() *ShardedTrackedMap {
	m := &ShardedTrackedMap{}
	for i := range m.shards {
		m.shards[i].pools = make(map[solana.PublicKey]domain.TrackedPool)
	}
	return m
}

// First key byte picks the shard; pubkeys are uniformly distributed.
func (m *ShardedTrackedMap) shard(key solana.PublicKey) *trackedShard {
	return &m.shards[key[0]%numShards]
}

func (m *ShardedTrackedMap) Get(key solana.PublicKey) (domain.TrackedPool, bool) {
	s := m.shard(key)
	s.mu.RLock()
	p, ok := s.pools[key]
	s.mu.RUnlock()
	return p, ok
}

// Put stores p and reports whether the address was new.
func (m *ShardedTrackedMap) Put(p domain.TrackedPool) bool {
	s := m.shard(p.Address)
	s.mu.Lock()
	_, existed := s.pools[p.Address]
	s.pools[p.Address] = p
	s.mu.Unlock()
	return !existed
}

func (m *ShardedTrackedMap) Len() int {
	total := 0
	for i := range m.shards {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Snapshot returns every tracked pool ordered by address so callers see a
// stable order across calls.
func (m *ShardedTrackedMap) Snapshot() []domain.TrackedPool {
	out := make([]domain.TrackedPool, 0, m.Len())
	for i := range m.shards {
		m.shards[i].mu.RLock()
		for _, p := range m.shards[i].pools {
			out = append(out, p)
		}
		m.shards[i].mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}
