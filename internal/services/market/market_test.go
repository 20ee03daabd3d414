package market

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/assert"

	"github.com/hxuan190/cpmm-router/internal/common"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	k[31] = b
	return k
}

var testProgramID = testKey(200)

type fakeReader struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*domain.RawAccount
	calls    int
	maxKeys  int
	err      error
}

func newFakeReader() *fakeReader {
	return &fakeReader{accounts: make(map[solana.PublicKey]*domain.RawAccount)}
}

func (f *fakeReader) GetAccounts(_ context.Context, keys []solana.PublicKey) ([]*domain.RawAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(keys) > f.maxKeys {
		f.maxKeys = len(keys)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.RawAccount, len(keys))
	for i, k := range keys {
		out[i] = f.accounts[k]
	}
	return out, nil
}

func (f *fakeReader) put(key, owner solana.PublicKey, data []byte) {
	f.accounts[key] = &domain.RawAccount{Owner: owner, Data: data, Slot: 77}
}

func tokenAccountData(mint solana.PublicKey, amount uint64) []byte {
	data := make([]byte, tokenAccountMinSize)
	copy(data[0:32], mint[:])
	binary.LittleEndian.PutUint64(data[tokenAccountAmountOffset:], amount)
	return data
}

func mintData(decimals uint8) []byte {
	data := make([]byte, 82)
	data[44] = decimals
	data[45] = 1
	return data
}

type poolFixture struct {
	address   solana.PublicKey
	config    solana.PublicKey
	mintA     solana.PublicKey
	mintB     solana.PublicKey
	vaultA    solana.PublicKey
	vaultB    solana.PublicKey
	balanceA  uint64
	balanceB  uint64
	protocolA uint64
	status    uint8
}

func (p poolFixture) state() *CpmmPoolState {
	return &CpmmPoolState{
		AmmConfig:          p.config,
		Token0Vault:        p.vaultA,
		Token1Vault:        p.vaultB,
		Token0Mint:         p.mintA,
		Token1Mint:         p.mintB,
		Token0Program:      common.TokenProgramID,
		Token1Program:      common.TokenProgramID,
		Status:             p.status,
		Mint0Decimals:      6,
		Mint1Decimals:      9,
		ProtocolFeesToken0: p.protocolA,
	}
}

func (p poolFixture) install(t *testing.T, r *fakeReader) {
	t.Helper()
	stateData, err := EncodePoolState(p.state())
	assert.NoError(t, err)
	cfgData, err := EncodeAmmConfig(&AmmConfig{TradeFeeRate: 2500, CreatorFeeRate: 0})
	assert.NoError(t, err)

	r.put(p.address, testProgramID, stateData)
	r.put(p.config, testProgramID, cfgData)
	r.put(p.vaultA, common.TokenProgramID, tokenAccountData(p.mintA, p.balanceA))
	r.put(p.vaultB, common.TokenProgramID, tokenAccountData(p.mintB, p.balanceB))
}

func newFixture(id byte) poolFixture {
	return poolFixture{
		address:  testKey(id),
		config:   testKey(100),
		mintA:    testKey(id + 1),
		mintB:    testKey(id + 2),
		vaultA:   testKey(id + 3),
		vaultB:   testKey(id + 4),
		balanceA: 1_000_000,
		balanceB: 2_000_000,
	}
}

func TestLayoutSizes(t *testing.T) {
	stateData, err := EncodePoolState(&CpmmPoolState{})
	assert.NoError(t, err)
	assert.Equal(t, len(stateData), PoolStateSize)
	assert.Equal(t, PoolStateSize, 637)

	cfgData, err := EncodeAmmConfig(&AmmConfig{})
	assert.NoError(t, err)
	assert.Equal(t, len(cfgData), AmmConfigSize)
	assert.Equal(t, AmmConfigSize, 236)
}

func TestDecodePoolState(t *testing.T) {
	fx := newFixture(10)
	state := fx.state()
	state.EnableCreatorFee = true
	state.CreatorFeeOn = 2
	state.CreatorFeesToken1 = 55

	data, err := EncodePoolState(state)
	assert.NoError(t, err)

	decoded, err := DecodePoolState(data)
	assert.NoError(t, err)
	assert.Equal(t, decoded.Token0Mint, fx.mintA)
	assert.Equal(t, decoded.Token1Vault, fx.vaultB)
	assert.Equal(t, decoded.Mint1Decimals, uint8(9))
	assert.True(t, decoded.EnableCreatorFee)
	assert.Equal(t, decoded.CreatorFeeOn, uint8(2))
	assert.Equal(t, decoded.CreatorFeesToken1, uint64(55))

	t.Run("wrong discriminator", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xff
		_, err := DecodePoolState(bad)
		assert.True(t, errors.Is(err, ErrDiscriminator))
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodePoolState(data[:100])
		assert.True(t, errors.Is(err, ErrInvalidAccountData))
	})

	t.Run("config account is not a pool", func(t *testing.T) {
		cfgData, err := EncodeAmmConfig(&AmmConfig{})
		assert.NoError(t, err)
		_, err = DecodePoolState(cfgData)
		assert.Error(t, err)
	})
}

func TestBuildPool(t *testing.T) {
	fx := newFixture(10)
	cfg := &AmmConfig{TradeFeeRate: 2500, CreatorFeeRate: 1000}
	vaults := VaultBalances{Token0: big.NewInt(1_000_000), Token1: big.NewInt(2_000_000), Slot: 9}

	t.Run("subtracts accrued fees", func(t *testing.T) {
		state := fx.state()
		state.ProtocolFeesToken0 = 100
		state.FundFeesToken0 = 20
		state.FundFeesToken1 = 7
		state.EnableCreatorFee = true
		state.CreatorFeesToken0 = 30
		state.CreatorFeesToken1 = 3

		pool := BuildPool(state, cfg, fx.address, testProgramID, vaults)
		assert.NotNil(t, pool)
		assert.Equal(t, pool.ReserveA.String(), "999850")
		assert.Equal(t, pool.ReserveB.String(), "1999990")
		assert.Equal(t, pool.Fees.TradeFeeRatePpm, uint32(2500))
		assert.Equal(t, pool.Fees.CreatorFeeRatePpm, uint32(1000))
		assert.True(t, pool.CreatorFeeEnabled)
		assert.Equal(t, pool.CreatorFeeMode, domain.CreatorFeeOnBoth)
		assert.Equal(t, pool.LastUpdatedSlot, uint64(9))
		assert.True(t, pool.IsRoutable())
	})

	t.Run("creator fees ignored when disabled", func(t *testing.T) {
		state := fx.state()
		state.CreatorFeesToken0 = 500
		pool := BuildPool(state, cfg, fx.address, testProgramID, vaults)
		assert.Equal(t, pool.ReserveA.String(), "1000000")
		assert.False(t, pool.CreatorFeeEnabled)
	})

	t.Run("creator fee side", func(t *testing.T) {
		state := fx.state()
		state.EnableCreatorFee = true
		state.CreatorFeeOn = 1
		pool := BuildPool(state, cfg, fx.address, testProgramID, vaults)
		assert.Equal(t, pool.CreatorFeeMode, domain.CreatorFeeOnlyTokenA)
	})

	t.Run("swap disabled", func(t *testing.T) {
		state := fx.state()
		state.Status = PoolStatusSwapDisabled
		assert.True(t, BuildPool(state, cfg, fx.address, testProgramID, vaults) == nil)
	})

	t.Run("deposit disabled still swaps", func(t *testing.T) {
		state := fx.state()
		state.Status = PoolStatusDepositDisabled | PoolStatusWithdrawDisabled
		assert.NotNil(t, BuildPool(state, cfg, fx.address, testProgramID, vaults))
	})

	t.Run("fees exceed vault", func(t *testing.T) {
		state := fx.state()
		state.ProtocolFeesToken1 = 2_000_000
		assert.True(t, BuildPool(state, cfg, fx.address, testProgramID, vaults) == nil)
	})

	t.Run("fee rate clamped", func(t *testing.T) {
		pool := BuildPool(fx.state(), &AmmConfig{TradeFeeRate: 5_000_000}, fx.address, testProgramID, vaults)
		assert.Equal(t, pool.Fees.TradeFeeRatePpm, uint32(1_000_000))
	})
}

func TestPoolSourceLoadPools(t *testing.T) {
	reader := newFakeReader()
	good := newFixture(10)
	good.protocolA = 1000
	good.install(t, reader)

	disabled := newFixture(20)
	disabled.status = PoolStatusSwapDisabled
	disabled.install(t, reader)

	empty := newFixture(30)
	empty.balanceB = 0
	empty.install(t, reader)

	foreign := newFixture(40)
	foreign.install(t, reader)
	reader.accounts[foreign.address].Owner = testKey(201)

	missing := testKey(50)

	source := NewPoolSource(reader, testProgramID, 3)
	result, err := source.LoadPools(context.Background(), []solana.PublicKey{
		good.address, disabled.address, empty.address, foreign.address, missing, good.address,
	})
	assert.NoError(t, err)

	assert.Equal(t, len(result.Pools), 1)
	pool := result.Pools[0]
	assert.Equal(t, pool.Address, good.address)
	assert.Equal(t, pool.ReserveA.String(), "999000")
	assert.Equal(t, pool.ReserveB.String(), "2000000")
	assert.Equal(t, pool.Fees.TradeFeeRatePpm, uint32(2500))
	assert.Equal(t, pool.LastUpdatedSlot, uint64(77))

	assert.Equal(t, len(result.Tracked), 1)
	assert.Equal(t, result.Tracked[0].AmmConfig, good.config)
	assert.Equal(t, result.Tracked[0].DecimalsB, uint8(9))

	assert.Equal(t, result.Skipped[disabled.address], "swap_disabled")
	assert.Equal(t, result.Skipped[empty.address], "empty_reserves")
	assert.Equal(t, result.Skipped[foreign.address], "wrong_owner")
	assert.Equal(t, result.Skipped[missing], "missing")

	assert.True(t, reader.maxKeys <= 3)
}

func TestPoolSourceReaderError(t *testing.T) {
	reader := newFakeReader()
	reader.err = errors.New("rpc down")

	_, err := NewPoolSource(reader, testProgramID, 100).LoadPools(context.Background(), []solana.PublicKey{testKey(1)})
	assert.Error(t, err)
}

func TestPoolSourceMissingVault(t *testing.T) {
	reader := newFakeReader()
	fx := newFixture(10)
	fx.install(t, reader)
	delete(reader.accounts, fx.vaultB)

	result, err := NewPoolSource(reader, testProgramID, 100).LoadPools(context.Background(), []solana.PublicKey{fx.address})
	assert.NoError(t, err)
	assert.Equal(t, len(result.Pools), 0)
	assert.Equal(t, result.Skipped[fx.address], "vault")
}

func TestTokenAccountAmount(t *testing.T) {
	acc := &domain.RawAccount{Owner: common.Token2022ID, Data: tokenAccountData(testKey(1), 123456789)}
	amount, err := TokenAccountAmount(acc)
	assert.NoError(t, err)
	assert.Equal(t, amount, uint64(123456789))

	_, err = TokenAccountAmount(&domain.RawAccount{Owner: testKey(9), Data: acc.Data})
	assert.True(t, errors.Is(err, ErrInvalidAccountData))

	_, err = TokenAccountAmount(&domain.RawAccount{Owner: common.TokenProgramID, Data: acc.Data[:70]})
	assert.True(t, errors.Is(err, ErrInvalidAccountData))
}

func TestTokenMetadataResolver(t *testing.T) {
	reader := newFakeReader()
	usdc := testKey(1)
	wsol := testKey(2)
	reader.put(usdc, common.TokenProgramID, mintData(6))
	reader.put(wsol, common.Token2022ID, mintData(9))

	resolver := NewTokenMetadataResolver(reader, 8)
	got, err := resolver.Resolve(context.Background(), usdc, wsol)
	assert.NoError(t, err)
	assert.Equal(t, got[usdc].Decimals, uint8(6))
	assert.Equal(t, got[wsol].Decimals, uint8(9))
	assert.Equal(t, got[wsol].TokenProgram, common.Token2022ID)
	assert.Equal(t, reader.calls, 1)

	meta, err := resolver.Get(context.Background(), usdc)
	assert.NoError(t, err)
	assert.Equal(t, meta.Decimals, uint8(6))
	assert.Equal(t, reader.calls, 1)

	_, err = resolver.Get(context.Background(), testKey(3))
	assert.True(t, errors.Is(err, ErrUnknownMint))
}

func TestTokenMetadataRememberPools(t *testing.T) {
	reader := newFakeReader()
	resolver := NewTokenMetadataResolver(reader, 8)
	resolver.RememberPools([]*domain.Pool{{TokenMintA: testKey(1), TokenMintB: testKey(2), TokenDecimalsA: 6, TokenDecimalsB: 8}, nil})

	got, err := resolver.Resolve(context.Background(), testKey(1), testKey(2))
	assert.NoError(t, err)
	assert.Equal(t, got[testKey(2)].Decimals, uint8(8))
	assert.Equal(t, reader.calls, 0)
	assert.Equal(t, resolver.CacheSize(), 2)
}

func TestBoundedLRUCache(t *testing.T) {
	cache := NewBoundedLRUCache[string, int](2)
	var evicted []string
	cache.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	cache.Set("a", 1)
	cache.Set("b", 2)
	_, _ = cache.Get("a")
	cache.Set("c", 3)

	_, ok := cache.Get("b")
	assert.False(t, ok)
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, v, 1)
	assert.Equal(t, cache.Len(), 2)
	assert.Equal(t, len(evicted), 1)
	assert.Equal(t, evicted[0], "b")

	// Peek does not promote.
	_, _ = cache.Peek("c")
	cache.Set("a", 10)
	cache.Set("d", 4)
	_, ok = cache.Peek("c")
	assert.False(t, ok)
	assert.Equal(t, evicted, []string{"b", "c"})
}

type memStore struct {
	saved  map[solana.PublicKey]domain.TrackedPool
	writes int
}

func (m *memStore) SaveTrackedPool(p domain.TrackedPool) error {
	m.saved[p.Address] = p
	m.writes++
	return nil
}

func (m *memStore) SaveTrackedPoolBatch(ps []domain.TrackedPool) error {
	for _, p := range ps {
		m.saved[p.Address] = p
	}
	m.writes++
	return nil
}

func (m *memStore) LoadTrackedPools() ([]domain.TrackedPool, error) {
	out := make([]domain.TrackedPool, 0, len(m.saved))
	for _, p := range m.saved {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func TestTrackedRegistry(t *testing.T) {
	store := &memStore{saved: map[solana.PublicKey]domain.TrackedPool{
		testKey(5): {Address: testKey(5), AmmConfig: testKey(100)},
	}}
	reg := NewTrackedRegistry(store)

	n, err := reg.Restore()
	assert.NoError(t, err)
	assert.Equal(t, n, 1)

	added := reg.Seed([]solana.PublicKey{testKey(5), testKey(3)})
	assert.Equal(t, added, 1)
	assert.Equal(t, reg.Len(), 2)

	addrs := reg.Addresses()
	assert.Equal(t, addrs[0], testKey(3))
	assert.Equal(t, addrs[1], testKey(5))

	full := domain.TrackedPool{Address: testKey(3), AmmConfig: testKey(100), DecimalsA: 6}
	assert.NoError(t, reg.Track(full))
	assert.Equal(t, store.writes, 1)
	got, ok := reg.Get(testKey(3))
	assert.True(t, ok)
	assert.Equal(t, got.DecimalsA, uint8(6))

	// Unchanged configs are not rewritten.
	assert.NoError(t, reg.Track(full))
	assert.Equal(t, store.writes, 1)
}

func TestServiceTrackAndLoad(t *testing.T) {
	reader := newFakeReader()
	a := newFixture(10)
	a.install(t, reader)
	b := newFixture(20)
	b.status = PoolStatusSwapDisabled
	b.install(t, reader)

	store := &memStore{saved: map[solana.PublicKey]domain.TrackedPool{}}
	svc := NewService(reader, testProgramID, 100, 16, store)
	assert.NoError(t, svc.Start())

	pool, err := svc.TrackPool(context.Background(), a.address)
	assert.NoError(t, err)
	assert.Equal(t, pool.Address, a.address)
	assert.Equal(t, svc.TrackedCount(), 1)
	assert.Equal(t, len(store.saved), 1)

	_, err = svc.TrackPool(context.Background(), b.address)
	assert.True(t, errors.Is(err, ErrPoolNotLoadable))
	assert.Equal(t, svc.TrackedCount(), 1)

	// Reserves move between loads; every load sees the latest balance.
	reader.put(a.vaultB, common.TokenProgramID, tokenAccountData(a.mintB, 3_000_000))
	result, err := svc.LoadPools(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(result.Pools), 1)
	assert.Equal(t, result.Pools[0].ReserveB.String(), "3000000")

	meta, err := svc.TokenMetadata(context.Background(), a.mintA)
	assert.NoError(t, err)
	assert.Equal(t, meta[a.mintA].Decimals, uint8(6))

	assert.NoError(t, svc.Stop())
}
