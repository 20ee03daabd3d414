package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	TrackedPoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpmm_router_tracked_pool_count",
		Help: "Total number of pools tracked for quoting",
	})

	PoolsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpmm_router_pools_fetched_total",
			Help: "Total number of pool states loaded from chain",
		},
		[]string{"status"},
	)

	PoolsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpmm_router_pools_excluded_total",
			Help: "Total number of pools excluded from routing",
		},
		[]string{"reason"},
	)

	PoolLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cpmm_router_pool_load_duration_seconds",
		Help:    "Fresh pool state load duration in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpmm_router_rpc_requests_total",
			Help: "Total number of getMultipleAccounts requests",
		},
		[]string{"status"},
	)

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpmm_router_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"swap_mode", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpmm_router_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"swap_mode"},
	)

	// Router phase metrics for performance analysis
	RouteSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpmm_router_route_search_duration_seconds",
			Help:    "Best route search duration in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.05},
		},
		[]string{"swap_mode"},
	)

	CpmmQuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cpmm_router_cpmm_quote_duration_seconds",
		Help:    "Single CPMM hop quote calculation duration in seconds",
		Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
	})

	PathsEnumerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cpmm_router_paths_enumerated",
		Help:    "Number of candidate paths enumerated per route search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
	})

	PathsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpmm_router_paths_failed_total",
			Help: "Total number of candidate paths that failed to quote",
		},
		[]string{"swap_mode"},
	)

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpmm_router_price_impact_bps",
			Help:    "Price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Cache metrics
	TokenMetadataCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpmm_router_token_metadata_cache_size",
		Help: "Current number of entries in token metadata cache",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpmm_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpmm_router_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
