package router

import (
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultParallelThreshold is the path count above which paths are quoted concurrently.
const DefaultParallelThreshold = 8

type Options struct {
	MaxHops           int
	ParallelThreshold int
	Logger            *zerolog.Logger
}

// Router selects the best CPMM route over a caller-supplied pool list.
// It holds no per-request state and is safe for concurrent use.
type Router struct {
	maxHops           int
	parallelThreshold int
	logger            zerolog.Logger
}

// RouteStats describes the search behind a FindBestRoute result.
type RouteStats struct {
	PoolsConsidered int
	PoolsExcluded   int
	PathsEnumerated int
	PathsFailed     int
}

func NewRouter(opts Options) *Router {
	r := &Router{
		maxHops:           opts.MaxHops,
		parallelThreshold: opts.ParallelThreshold,
	}
	if r.maxHops <= 0 {
		r.maxHops = DefaultMaxHops
	}
	if r.parallelThreshold <= 0 {
		r.parallelThreshold = DefaultParallelThreshold
	}
	if opts.Logger != nil {
		r.logger = *opts.Logger
	} else {
		r.logger = log.With().Str("component", "router").Logger()
	}
	return r
}

func (r *Router) MaxHops() int {
	return r.maxHops
}

// FindBestRoute quotes every path of at most MaxHops hops from inputMint to
// outputMint and returns the best one. amount is the input for ExactIn and the
// desired output for ExactOut. Absence of a route is ErrNoRoute.
func (r *Router) FindBestRoute(pools []*domain.Pool, inputMint, outputMint solana.PublicKey, mode domain.SwapMode, amount *big.Int) (*domain.RouteQuote, error) {
	quote, _, err := r.FindBestRouteWithStats(pools, inputMint, outputMint, mode, amount)
	return quote, err
}

func (r *Router) FindBestRouteWithStats(pools []*domain.Pool, inputMint, outputMint solana.PublicKey, mode domain.SwapMode, amount *big.Int) (*domain.RouteQuote, RouteStats, error) {
	var stats RouteStats
	if inputMint.Equals(outputMint) {
		return nil, stats, ErrSameMint
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, stats, ErrInvalidAmount
	}

	start := time.Now()
	defer func() {
		metrics.RouteSearchDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	}()

	graph := NewGraph(pools)
	stats.PoolsConsidered = graph.GetPoolCount()
	stats.PoolsExcluded = graph.ExcludedCount()

	paths := graph.EnumeratePaths(inputMint, outputMint, r.maxHops)
	stats.PathsEnumerated = len(paths)
	metrics.PathsEnumerated.Observe(float64(len(paths)))
	if len(paths) == 0 {
		return nil, stats, ErrNoRoute
	}

	results := r.evaluatePaths(paths, inputMint, outputMint, amount, mode)
	for i, res := range results {
		if res.err == nil {
			continue
		}
		stats.PathsFailed++
		r.logger.Debug().
			Err(res.err).
			Int("path", i).
			Int("hops", len(paths[i])).
			Msg("[router] skipping path")
	}
	if stats.PathsFailed > 0 {
		metrics.PathsFailed.WithLabelValues(mode.String()).Add(float64(stats.PathsFailed))
	}

	best := selectBest(results, mode)
	if best == nil {
		return nil, stats, ErrNoRoute
	}
	return best, stats, nil
}
