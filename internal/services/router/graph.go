package router

import (
	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

// DefaultMaxHops bounds path length when the caller passes a non-positive limit.
const DefaultMaxHops = 3

type adjMap = map[solana.PublicKey][]*domain.Pool
type poolsMap = map[solana.PublicKey]*domain.Pool

// Graph is an undirected multigraph: tokens are nodes and pools are edges.
// It is built for a single request and is read-only afterwards.
type Graph struct {
	adj   adjMap
	pools poolsMap

	excluded int
}

// NewGraph indexes the routable pools. Incident lists keep insertion order,
// so enumeration over the same pool list is deterministic.
func NewGraph(pools []*domain.Pool) *Graph {
	g := &Graph{
		adj:   make(adjMap, len(pools)*2),
		pools: make(poolsMap, len(pools)),
	}
	for _, pool := range pools {
		if !g.addPool(pool) {
			g.excluded++
		}
	}
	return g
}

func (g *Graph) addPool(pool *domain.Pool) bool {
	if !pool.IsRoutable() {
		return false
	}
	if _, exists := g.pools[pool.Address]; exists {
		return false
	}
	g.pools[pool.Address] = pool
	g.adj[pool.TokenMintA] = append(g.adj[pool.TokenMintA], pool)
	g.adj[pool.TokenMintB] = append(g.adj[pool.TokenMintB], pool)
	return true
}

func (g *Graph) GetPoolCount() int {
	return len(g.pools)
}

// ExcludedCount is the number of supplied pools that were not routable.
func (g *Graph) ExcludedCount() int {
	return g.excluded
}

// EnumeratePaths returns every simple path of pools from source to dest with
// at most maxHops hops. No token appears twice in a path.
func (g *Graph) EnumeratePaths(source, dest solana.PublicKey, maxHops int) [][]*domain.Pool {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if source.Equals(dest) {
		return nil
	}
	if len(g.adj[source]) == 0 || len(g.adj[dest]) == 0 {
		return nil
	}

	var paths [][]*domain.Pool
	visited := map[solana.PublicKey]struct{}{source: {}}
	stack := make([]*domain.Pool, 0, maxHops)

	var dfs func(current solana.PublicKey)
	dfs = func(current solana.PublicKey) {
		if len(stack) == maxHops {
			return
		}
		for _, pool := range g.adj[current] {
			next, _ := pool.OtherMint(current)
			if _, seen := visited[next]; seen {
				continue
			}
			stack = append(stack, pool)
			if next.Equals(dest) {
				path := make([]*domain.Pool, len(stack))
				copy(path, stack)
				paths = append(paths, path)
			} else {
				visited[next] = struct{}{}
				dfs(next)
				delete(visited, next)
			}
			stack = stack[:len(stack)-1]
		}
	}
	dfs(source)

	return paths
}
