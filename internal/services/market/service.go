package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/cpmm-router/internal/adapters/blockchain"
	"github.com/hxuan190/cpmm-router/internal/adapters/persistence"
	"github.com/hxuan190/cpmm-router/internal/config"
	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
	"github.com/hxuan190/cpmm-router/internal/services"
)

const MARKET_SERVICE = "market-service"

var ErrPoolNotLoadable = errors.New("pool cannot be loaded")

// Service owns the tracked pool set and turns it into fresh, quotable pools.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	programID solana.PublicKey
	seeds     []solana.PublicKey
	source    *PoolSource
	metadata  *TokenMetadataResolver
	registry  *TrackedRegistry
}

// NewService wires a market service without the container. store may be nil.
func NewService(reader AccountReader, programID solana.PublicKey, batchSize, metadataCacheSize int, store PoolStore) *Service {
	svc := &Service{}
	svc.logger = services.NewServiceLogger(svc)
	svc.init(reader, programID, batchSize, metadataCacheSize, store)
	return svc
}

func (svc *Service) init(reader AccountReader, programID solana.PublicKey, batchSize, metadataCacheSize int, store PoolStore) {
	svc.programID = programID
	svc.source = NewPoolSource(reader, programID, batchSize)
	svc.metadata = NewTokenMetadataResolver(reader, metadataCacheSize)
	svc.registry = NewTrackedRegistry(store)
}

func (svc *Service) ID() string {
	return MARKET_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	marketConfig := c.GetConfig(config.MARKET_CONFIG_KEY).(*config.MarketConfig)

	programID, err := solana.PublicKeyFromBase58(marketConfig.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid CPMM_PROGRAM_ID: %w", err)
	}

	seeds := make([]solana.PublicKey, 0, len(marketConfig.PoolAddresses))
	for _, raw := range marketConfig.PoolAddresses {
		addr, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return fmt.Errorf("invalid pool address %q in CPMM_POOL_ADDRESSES: %w", raw, err)
		}
		seeds = append(seeds, addr)
	}
	svc.seeds = seeds

	var store PoolStore
	if marketConfig.PersistenceEnabled {
		storage, err := persistence.NewStorage(marketConfig.DBPath)
		if err != nil {
			return err
		}
		store = storage
	}

	reader := blockchain.NewRPCAccountReader(rpcConfig.Endpoint(), marketConfig.FetchBatchSize)
	svc.init(reader, programID, marketConfig.FetchBatchSize, marketConfig.MetadataCacheSize, store)
	return nil
}

func (svc *Service) Start() error {
	restored, err := svc.registry.Restore()
	if err != nil {
		svc.logger.Error().Err(err).Msg("[MarketService] failed to restore tracked pools")
	}
	seeded := svc.registry.Seed(svc.seeds)

	svc.logger.Info().
		Int("restored", restored).
		Int("seeded", seeded).
		Int("tracked", svc.registry.Len()).
		Str("program", svc.programID.String()).
		Msg("[MarketService] tracked pool set ready")
	return nil
}

func (svc *Service) Stop() error {
	if err := svc.registry.Close(); err != nil {
		svc.logger.Error().Err(err).Msg("[MarketService] failed to close storage")
		return err
	}
	return nil
}

// LoadPools reads every tracked pool fresh from the chain. Pools that load
// for the first time get their full config recorded.
func (svc *Service) LoadPools(ctx context.Context) (*LoadResult, error) {
	start := time.Now()
	defer func() {
		metrics.PoolLoadDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := svc.source.LoadPools(ctx, svc.registry.Addresses())
	if err != nil {
		return nil, err
	}
	svc.remember(result)

	if len(result.Skipped) > 0 {
		svc.logger.Debug().Int("skipped", len(result.Skipped)).Int("loaded", len(result.Pools)).Msg("[MarketService] some tracked pools were skipped")
	}
	return result, nil
}

// FreshPools returns the quotable pools of one fresh load.
func (svc *Service) FreshPools(ctx context.Context) ([]*domain.Pool, error) {
	result, err := svc.LoadPools(ctx)
	if err != nil {
		return nil, err
	}
	return result.Pools, nil
}

// TrackPool loads address fresh and adds it to the tracked set when it is a
// quotable pool of the configured program.
func (svc *Service) TrackPool(ctx context.Context, address solana.PublicKey) (*domain.Pool, error) {
	result, err := svc.source.LoadPools(ctx, []solana.PublicKey{address})
	if err != nil {
		return nil, err
	}
	if reason, skipped := result.Skipped[address]; skipped {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotLoadable, reason)
	}
	if len(result.Pools) != 1 {
		return nil, ErrPoolNotLoadable
	}
	svc.remember(result)

	svc.logger.Info().Str("pool", address.String()).Msg("[MarketService] pool tracked")
	return result.Pools[0], nil
}

func (svc *Service) remember(result *LoadResult) {
	if err := svc.registry.Track(result.Tracked...); err != nil {
		svc.logger.Error().Err(err).Msg("[MarketService] failed to persist tracked pools")
	}
	svc.metadata.RememberPools(result.Pools)
}

func (svc *Service) TokenMetadata(ctx context.Context, mints ...solana.PublicKey) (map[solana.PublicKey]domain.TokenMetadata, error) {
	return svc.metadata.Resolve(ctx, mints...)
}

func (svc *Service) TrackedPools() []domain.TrackedPool {
	return svc.registry.All()
}

func (svc *Service) TrackedPool(address solana.PublicKey) (domain.TrackedPool, bool) {
	return svc.registry.Get(address)
}

func (svc *Service) TrackedCount() int {
	return svc.registry.Len()
}

func (svc *Service) MetadataCacheSize() int {
	return svc.metadata.CacheSize()
}

func (svc *Service) ProgramID() solana.PublicKey {
	return svc.programID
}
