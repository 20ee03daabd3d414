package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/cpmm-router/internal/domain"
)

const (
	PoolsBucket = "tracked_pools"

	DefaultDBPath = "./data/market.db"
)

// StoredPool is the on-disk form of a tracked pool. Keys are base58 so the
// database stays readable with generic bolt tooling.
type StoredPool struct {
	Address     string `json:"address"`
	ProgramID   string `json:"programId"`
	TokenMintA  string `json:"tokenMintA"`
	TokenMintB  string `json:"tokenMintB"`
	TokenVaultA string `json:"tokenVaultA"`
	TokenVaultB string `json:"tokenVaultB"`
	AmmConfig   string `json:"ammConfig"`
	DecimalsA   uint8  `json:"decimalsA"`
	DecimalsB   uint8  `json:"decimalsB"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[marketStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveTrackedPool(pool domain.TrackedPool) error {
	data, err := sonic.Marshal(trackedToStored(pool))
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}
	return s.db.Set(PoolsBucket, []byte(pool.Address.String()), data)
}

func (s *Storage) SaveTrackedPoolBatch(pools []domain.TrackedPool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pool := range pools {
		data, err := sonic.Marshal(trackedToStored(pool))
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.Address, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    []byte(pool.Address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.Address, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[marketStorage] failed to execute batch")
		return err
	}

	log.Debug().Int("count", len(pools)).Msg("[marketStorage] saved tracked pool batch")
	return nil
}

// LoadTrackedPools returns every decodable stored pool. Corrupt entries are
// logged and skipped.
func (s *Storage) LoadTrackedPools() ([]domain.TrackedPool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]domain.TrackedPool, 0, len(data))
	failed := 0
	for address, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[marketStorage] failed to unmarshal pool, skipping")
			failed++
			continue
		}
		pool, err := storedToTracked(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[marketStorage] invalid stored pool, skipping")
			failed++
			continue
		}
		pools = append(pools, pool)
	}

	log.Info().
		Int("total_in_db", len(data)).
		Int("loaded", len(pools)).
		Int("failed", failed).
		Msg("[marketStorage] tracked pools loaded")

	return pools, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func trackedToStored(p domain.TrackedPool) *StoredPool {
	return &StoredPool{
		Address:     p.Address.String(),
		ProgramID:   p.ProgramID.String(),
		TokenMintA:  p.TokenMintA.String(),
		TokenMintB:  p.TokenMintB.String(),
		TokenVaultA: p.TokenVaultA.String(),
		TokenVaultB: p.TokenVaultB.String(),
		AmmConfig:   p.AmmConfig.String(),
		DecimalsA:   p.DecimalsA,
		DecimalsB:   p.DecimalsB,
	}
}

func storedToTracked(stored *StoredPool) (domain.TrackedPool, error) {
	pool := domain.TrackedPool{
		DecimalsA: stored.DecimalsA,
		DecimalsB: stored.DecimalsB,
	}

	var err error
	parse := func(name, raw string, dst *solana.PublicKey) {
		if err != nil {
			return
		}
		key, perr := solana.PublicKeyFromBase58(raw)
		if perr != nil {
			err = fmt.Errorf("invalid %s: %w", name, perr)
			return
		}
		*dst = key
	}
	parse("address", stored.Address, &pool.Address)
	parse("programId", stored.ProgramID, &pool.ProgramID)
	parse("tokenMintA", stored.TokenMintA, &pool.TokenMintA)
	parse("tokenMintB", stored.TokenMintB, &pool.TokenMintB)
	parse("tokenVaultA", stored.TokenVaultA, &pool.TokenVaultA)
	parse("tokenVaultB", stored.TokenVaultB, &pool.TokenVaultB)
	parse("ammConfig", stored.AmmConfig, &pool.AmmConfig)
	if err != nil {
		return domain.TrackedPool{}, err
	}
	return pool, nil
}
