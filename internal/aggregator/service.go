package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/cpmm-router/internal/config"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
	"github.com/hxuan190/cpmm-router/internal/services"
	"github.com/hxuan190/cpmm-router/internal/services/market"
	"github.com/hxuan190/cpmm-router/internal/services/router"
)

const AGGREGATOR_SERVICE = "aggregator-service"

var (
	ErrInvalidParams    = errors.New("invalid quote params")
	ErrSlippageTooLarge = errors.New("slippage exceeds maximum")
	ErrPoolLoad         = errors.New("failed to load pool state")

	ErrNoRoute               = router.ErrNoRoute
	ErrSameMint              = router.ErrSameMint
	ErrInsufficientLiquidity = router.ErrInsufficientLiquidity
)

// PoolProvider supplies the freshly read pools a single quote runs against.
type PoolProvider interface {
	FreshPools(ctx context.Context) ([]*domain.Pool, error)
	TokenMetadata(ctx context.Context, mints ...solana.PublicKey) (map[solana.PublicKey]domain.TokenMetadata, error)
}

// Service validates quote requests, loads pools and runs the router.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	pools  PoolProvider
	router *router.Router
	config *config.RouterConfig
}

func New(pools PoolProvider, cfg *config.RouterConfig) *Service {
	svc := &Service{}
	svc.logger = services.NewServiceLogger(svc)
	svc.init(pools, cfg)
	return svc
}

func (svc *Service) init(pools PoolProvider, cfg *config.RouterConfig) {
	svc.pools = pools
	svc.config = cfg
	svc.router = router.NewRouter(router.Options{
		MaxHops:           cfg.MaxHops,
		ParallelThreshold: cfg.ParallelThreshold,
		Logger:            svc.logger.Component("router"),
	})
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	routerConfig := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	marketSvc := c.Instance(market.MARKET_SERVICE).(*market.Service)
	svc.init(marketSvc, routerConfig)
	return nil
}

func (svc *Service) Start() error {
	svc.logger.Info().
		Int("max_hops", svc.router.MaxHops()).
		Dur("quote_timeout", svc.config.QuoteTimeout).
		Msg("[aggregatorService] ready")
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

func (svc *Service) DefaultSlippageBps() uint16 {
	return uint16(svc.config.DefaultSlippageBps)
}

func (svc *Service) MaxSlippageBps() uint16 {
	return uint16(svc.config.MaxSlippageBps)
}

func (svc *Service) MaxHops() int {
	return svc.router.MaxHops()
}

// Quote reads every tracked pool fresh, finds the best route for params and
// bounds it by the requested slippage.
func (svc *Service) Quote(ctx context.Context, params domain.QuoteParams) (*domain.QuoteOutcome, error) {
	start := time.Now()
	mode := params.Mode.String()
	status := "error"
	defer func() {
		metrics.QuoteRequests.WithLabelValues(mode, status).Inc()
		metrics.QuoteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	if err := svc.validate(params); err != nil {
		status = "invalid"
		return nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, svc.config.QuoteTimeout)
	defer cancel()
	pools, err := svc.pools.FreshPools(loadCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		return nil, fmt.Errorf("%w: %w", ErrPoolLoad, err)
	}

	quote, stats, err := svc.router.FindBestRouteWithStats(pools, params.InputMint, params.OutputMint, params.Mode, params.Amount)
	if err != nil {
		if errors.Is(err, router.ErrNoRoute) {
			status = "no_route"
		}
		return nil, err
	}
	quote.SlippageBps = params.SlippageBps

	severity := router.GetPriceImpactSeverity(quote.PriceImpactBps)
	metrics.PriceImpact.WithLabelValues(string(severity)).Observe(float64(quote.PriceImpactBps))

	outcome := &domain.QuoteOutcome{
		Quote:           quote,
		Bounded:         router.ApplySlippage(quote, params.SlippageBps, params.Mode),
		PoolsConsidered: stats.PoolsConsidered,
		PathsEvaluated:  stats.PathsEnumerated,
	}
	svc.attachMetadata(ctx, outcome, params)

	svc.logger.Debug().
		Str("input_mint", params.InputMint.String()).
		Str("output_mint", params.OutputMint.String()).
		Str("swap_mode", mode).
		Int("hops", len(quote.Hops)).
		Str("amount_in", quote.TotalAmountIn.String()).
		Str("amount_out", quote.TotalAmountOut.String()).
		Dur("took", time.Since(start)).
		Msg("[aggregatorService] quote")

	status = "ok"
	return outcome, nil
}

func (svc *Service) attachMetadata(ctx context.Context, outcome *domain.QuoteOutcome, params domain.QuoteParams) {
	meta, err := svc.pools.TokenMetadata(ctx, params.InputMint, params.OutputMint)
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[aggregatorService] token metadata unavailable")
		return
	}
	outcome.InputToken = meta[params.InputMint]
	outcome.OutputToken = meta[params.OutputMint]
}

var maxTokenAmount = new(big.Int).SetUint64(math.MaxUint64)

func (svc *Service) validate(params domain.QuoteParams) error {
	if params.InputMint.IsZero() || params.OutputMint.IsZero() {
		return fmt.Errorf("%w: input and output mint are required", ErrInvalidParams)
	}
	if params.InputMint.Equals(params.OutputMint) {
		return fmt.Errorf("%w: %w", ErrInvalidParams, ErrSameMint)
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidParams)
	}
	if params.Amount.Cmp(maxTokenAmount) > 0 {
		return fmt.Errorf("%w: amount exceeds u64", ErrInvalidParams)
	}
	if params.Mode != domain.ExactIn && params.Mode != domain.ExactOut {
		return fmt.Errorf("%w: unknown swap mode", ErrInvalidParams)
	}
	if int(params.SlippageBps) > svc.config.MaxSlippageBps {
		return fmt.Errorf("%w: %d > %d bps", ErrSlippageTooLarge, params.SlippageBps, svc.config.MaxSlippageBps)
	}
	return nil
}
