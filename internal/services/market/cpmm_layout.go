package market

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrDiscriminator      = errors.New("account discriminator mismatch")
)

var (
	PoolStateDiscriminator = [8]byte{247, 237, 227, 245, 215, 195, 222, 70}
	AmmConfigDiscriminator = [8]byte{218, 244, 33, 104, 203, 203, 43, 111}
)

// Serialized sizes including the 8-byte discriminator.
const (
	PoolStateSize = 8 + 10*32 + 5 + 7*8 + 1 + 1 + 6 + 2*8 + 28*8
	AmmConfigSize = 8 + 1 + 1 + 2 + 4*8 + 2*32 + 8 + 15*8
)

// Pool status bits. A set bit disables the operation.
const (
	PoolStatusDepositDisabled  uint8 = 1 << 0
	PoolStatusWithdrawDisabled uint8 = 1 << 1
	PoolStatusSwapDisabled     uint8 = 1 << 2
)

// CpmmPoolState is the on-chain pool account of the constant-product program.
type CpmmPoolState struct {
	AmmConfig      solana.PublicKey
	PoolCreator    solana.PublicKey
	Token0Vault    solana.PublicKey
	Token1Vault    solana.PublicKey
	LpMint         solana.PublicKey
	Token0Mint     solana.PublicKey
	Token1Mint     solana.PublicKey
	Token0Program  solana.PublicKey
	Token1Program  solana.PublicKey
	ObservationKey solana.PublicKey

	AuthBump       uint8
	Status         uint8
	LpMintDecimals uint8
	Mint0Decimals  uint8
	Mint1Decimals  uint8

	LpSupply           uint64
	ProtocolFeesToken0 uint64
	ProtocolFeesToken1 uint64
	FundFeesToken0     uint64
	FundFeesToken1     uint64
	OpenTime           uint64
	RecentEpoch        uint64

	// 0 both sides, 1 token0 only, 2 token1 only
	CreatorFeeOn      uint8
	EnableCreatorFee  bool
	Padding1          [6]uint8
	CreatorFeesToken0 uint64
	CreatorFeesToken1 uint64
	Padding           [28]uint64
}

// SwapDisabled reports whether the pool status forbids swaps.
func (s *CpmmPoolState) SwapDisabled() bool {
	return s.Status&PoolStatusSwapDisabled != 0
}

// AmmConfig holds the fee rates shared by every pool created under it.
// Rates are parts-per-million.
type AmmConfig struct {
	Bump              uint8
	DisableCreatePool bool
	Index             uint16
	TradeFeeRate      uint64
	ProtocolFeeRate   uint64
	FundFeeRate       uint64
	CreatePoolFee     uint64
	ProtocolOwner     solana.PublicKey
	FundOwner         solana.PublicKey
	CreatorFeeRate    uint64
	Padding           [15]uint64
}

func DecodePoolState(data []byte) (*CpmmPoolState, error) {
	if err := checkAccount(data, PoolStateDiscriminator, PoolStateSize); err != nil {
		return nil, fmt.Errorf("pool state: %w", err)
	}
	var state CpmmPoolState
	if err := bin.NewBinDecoder(data[8:]).Decode(&state); err != nil {
		return nil, fmt.Errorf("pool state: %w: %v", ErrInvalidAccountData, err)
	}
	return &state, nil
}

func DecodeAmmConfig(data []byte) (*AmmConfig, error) {
	if err := checkAccount(data, AmmConfigDiscriminator, AmmConfigSize); err != nil {
		return nil, fmt.Errorf("amm config: %w", err)
	}
	var cfg AmmConfig
	if err := bin.NewBinDecoder(data[8:]).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("amm config: %w: %v", ErrInvalidAccountData, err)
	}
	return &cfg, nil
}

func checkAccount(data []byte, discriminator [8]byte, size int) error {
	if len(data) < size {
		return fmt.Errorf("%w: %d bytes, want %d", ErrInvalidAccountData, len(data), size)
	}
	if !bytes.Equal(data[:8], discriminator[:]) {
		return ErrDiscriminator
	}
	return nil
}

// EncodePoolState serializes state with its discriminator. Used for fixtures
// and snapshot tooling.
func EncodePoolState(state *CpmmPoolState) ([]byte, error) {
	return encodeAccount(PoolStateDiscriminator, state)
}

func EncodeAmmConfig(cfg *AmmConfig) ([]byte, error) {
	return encodeAccount(AmmConfigDiscriminator, cfg)
}

func encodeAccount(discriminator [8]byte, v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if err := bin.NewBinEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
