package aggregator

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/cpmm-router/internal/config"
	"github.com/hxuan190/cpmm-router/internal/domain"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	k[0] = b
	k[31] = b
	return k
}

var (
	mintX = testKey(1)
	mintY = testKey(2)
	mintZ = testKey(3)
)

type stubProvider struct {
	pools   []*domain.Pool
	err     error
	metaErr error
	loads   int
}

func (s *stubProvider) FreshPools(ctx context.Context) ([]*domain.Pool, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.pools, nil
}

func (s *stubProvider) TokenMetadata(_ context.Context, mints ...solana.PublicKey) (map[solana.PublicKey]domain.TokenMetadata, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	out := make(map[solana.PublicKey]domain.TokenMetadata, len(mints))
	for _, m := range mints {
		out[m] = domain.TokenMetadata{Mint: m, Decimals: 6}
	}
	return out, nil
}

func testRouterConfig() *config.RouterConfig {
	return &config.RouterConfig{
		MaxHops:            3,
		ParallelThreshold:  8,
		DefaultSlippageBps: 50,
		MaxSlippageBps:     500,
		QuoteTimeout:       time.Second,
	}
}

func twoPoolProvider() *stubProvider {
	return &stubProvider{pools: []*domain.Pool{
		{Address: testKey(101), TokenMintA: mintX, TokenMintB: mintY, ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(2_000_000)},
		{Address: testKey(102), TokenMintA: mintY, TokenMintB: mintZ, ReserveA: big.NewInt(2_000_000), ReserveB: big.NewInt(500_000)},
	}}
}

func TestQuoteExactIn(t *testing.T) {
	provider := twoPoolProvider()
	svc := New(provider, testRouterConfig())

	outcome, err := svc.Quote(context.Background(), domain.QuoteParams{
		InputMint:   mintX,
		OutputMint:  mintZ,
		Amount:      big.NewInt(10_000),
		Mode:        domain.ExactIn,
		SlippageBps: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := outcome.Quote.TotalAmountOut.Int64(); got != 4901 {
		t.Errorf("amountOut = %d, want 4901", got)
	}
	if got := outcome.Bounded.TotalAmountOut.Int64(); got != 4876 {
		t.Errorf("bounded amountOut = %d, want 4876", got)
	}
	if outcome.Quote.SlippageBps != 50 {
		t.Errorf("slippage = %d, want 50", outcome.Quote.SlippageBps)
	}
	if outcome.PoolsConsidered != 2 || outcome.PathsEvaluated != 1 {
		t.Errorf("stats = %d pools / %d paths, want 2 / 1", outcome.PoolsConsidered, outcome.PathsEvaluated)
	}
	if outcome.InputToken.Mint != mintX || outcome.OutputToken.Decimals != 6 {
		t.Errorf("metadata not attached: %+v %+v", outcome.InputToken, outcome.OutputToken)
	}
	if provider.loads != 1 {
		t.Errorf("loads = %d, want 1", provider.loads)
	}
}

func TestQuoteReadsFreshStateEveryTime(t *testing.T) {
	provider := twoPoolProvider()
	svc := New(provider, testRouterConfig())
	params := domain.QuoteParams{InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(10_000), Mode: domain.ExactIn}

	first, err := svc.Quote(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.pools[0].ReserveB = big.NewInt(4_000_000)
	second, err := svc.Quote(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Quote.TotalAmountOut.Cmp(second.Quote.TotalAmountOut) >= 0 {
		t.Errorf("second quote %s should reflect deeper reserves than %s", second.Quote.TotalAmountOut, first.Quote.TotalAmountOut)
	}
	if provider.loads != 2 {
		t.Errorf("loads = %d, want 2", provider.loads)
	}
}

func TestQuoteValidation(t *testing.T) {
	tests := []struct {
		name   string
		params domain.QuoteParams
		want   error
	}{
		{"same mint", domain.QuoteParams{InputMint: mintX, OutputMint: mintX, Amount: big.NewInt(1)}, ErrSameMint},
		{"zero mint", domain.QuoteParams{OutputMint: mintX, Amount: big.NewInt(1)}, ErrInvalidParams},
		{"nil amount", domain.QuoteParams{InputMint: mintX, OutputMint: mintY}, ErrInvalidParams},
		{"zero amount", domain.QuoteParams{InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(0)}, ErrInvalidParams},
		{"negative amount", domain.QuoteParams{InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(-5)}, ErrInvalidParams},
		{"amount above u64", domain.QuoteParams{InputMint: mintX, OutputMint: mintY, Amount: new(big.Int).Lsh(big.NewInt(1), 64)}, ErrInvalidParams},
		{"unknown mode", domain.QuoteParams{InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(1), Mode: domain.SwapMode(7)}, ErrInvalidParams},
		{"slippage too large", domain.QuoteParams{InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(1), SlippageBps: 501}, ErrSlippageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := twoPoolProvider()
			svc := New(provider, testRouterConfig())
			_, err := svc.Quote(context.Background(), tt.params)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if provider.loads != 0 {
				t.Errorf("invalid request must not load pools")
			}
		})
	}
}

func TestQuoteFailures(t *testing.T) {
	t.Run("no route", func(t *testing.T) {
		svc := New(twoPoolProvider(), testRouterConfig())
		_, err := svc.Quote(context.Background(), domain.QuoteParams{
			InputMint: mintX, OutputMint: testKey(9), Amount: big.NewInt(100), Mode: domain.ExactIn,
		})
		if !errors.Is(err, ErrNoRoute) {
			t.Fatalf("err = %v, want ErrNoRoute", err)
		}
	})

	t.Run("exact out beyond liquidity", func(t *testing.T) {
		svc := New(twoPoolProvider(), testRouterConfig())
		_, err := svc.Quote(context.Background(), domain.QuoteParams{
			InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(2_000_000), Mode: domain.ExactOut,
		})
		if !errors.Is(err, ErrNoRoute) {
			t.Fatalf("err = %v, want ErrNoRoute", err)
		}
	})

	t.Run("pool load error", func(t *testing.T) {
		provider := twoPoolProvider()
		provider.err = errors.New("rpc unavailable")
		svc := New(provider, testRouterConfig())
		_, err := svc.Quote(context.Background(), domain.QuoteParams{
			InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(100), Mode: domain.ExactIn,
		})
		if !errors.Is(err, ErrPoolLoad) {
			t.Fatalf("err = %v, want ErrPoolLoad", err)
		}
	})

	t.Run("metadata failure keeps the quote", func(t *testing.T) {
		provider := twoPoolProvider()
		provider.metaErr = errors.New("mint lookup failed")
		svc := New(provider, testRouterConfig())
		outcome, err := svc.Quote(context.Background(), domain.QuoteParams{
			InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(100), Mode: domain.ExactIn,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !outcome.InputToken.Mint.IsZero() {
			t.Errorf("metadata should be empty on failure")
		}
	})
}

func TestQuoteExactOutBounds(t *testing.T) {
	svc := New(twoPoolProvider(), testRouterConfig())
	outcome, err := svc.Quote(context.Background(), domain.QuoteParams{
		InputMint: mintX, OutputMint: mintY, Amount: big.NewInt(10_000), Mode: domain.ExactOut, SlippageBps: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := outcome.Quote.TotalAmountIn
	maxIn := outcome.Bounded.TotalAmountIn
	want := new(big.Int).Mul(in, big.NewInt(10100))
	want.Quo(want, big.NewInt(10000))
	if maxIn.Cmp(want) != 0 {
		t.Errorf("max amountIn = %s, want %s", maxIn, want)
	}
	if outcome.Bounded.Hops[0].MaxAmountIn.Cmp(maxIn) != 0 {
		t.Errorf("single hop bound %s should equal route bound %s", outcome.Bounded.Hops[0].MaxAmountIn, maxIn)
	}
}
