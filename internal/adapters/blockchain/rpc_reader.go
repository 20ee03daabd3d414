package blockchain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/cpmm-router/internal/domain"
	"github.com/hxuan190/cpmm-router/internal/metrics"
)

// getMultipleAccounts accepts at most 100 keys per call.
const maxKeysPerRequest = 100

// RPCAccountReader reads raw accounts through getMultipleAccounts.
type RPCAccountReader struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
	batchSize  int
}

func NewRPCAccountReader(endpoint string, batchSize int) *RPCAccountReader {
	return NewRPCAccountReaderWithClient(rpc.New(endpoint), batchSize)
}

func NewRPCAccountReaderWithClient(client *rpc.Client, batchSize int) *RPCAccountReader {
	if batchSize <= 0 || batchSize > maxKeysPerRequest {
		batchSize = maxKeysPerRequest
	}
	return &RPCAccountReader{
		client:     client,
		commitment: rpc.CommitmentConfirmed,
		batchSize:  batchSize,
	}
}

// GetAccounts returns one entry per key, nil where the account does not exist.
func (r *RPCAccountReader) GetAccounts(ctx context.Context, keys []solana.PublicKey) ([]*domain.RawAccount, error) {
	out := make([]*domain.RawAccount, 0, len(keys))
	for start := 0; start < len(keys); start += r.batchSize {
		end := start + r.batchSize
		if end > len(keys) {
			end = len(keys)
		}

		res, err := r.client.GetMultipleAccountsWithOpts(ctx, keys[start:end], &rpc.GetMultipleAccountsOpts{
			Commitment: r.commitment,
		})
		if err != nil {
			metrics.RPCRequests.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("getMultipleAccounts: %w", err)
		}
		metrics.RPCRequests.WithLabelValues("ok").Inc()

		if len(res.Value) != end-start {
			return nil, fmt.Errorf("getMultipleAccounts: got %d accounts for %d keys", len(res.Value), end-start)
		}
		for _, acc := range res.Value {
			out = append(out, toRawAccount(acc, res.Context.Slot))
		}
	}
	return out, nil
}

func toRawAccount(acc *rpc.Account, slot uint64) *domain.RawAccount {
	if acc == nil || acc.Data == nil {
		return nil
	}
	return &domain.RawAccount{
		Owner: acc.Owner,
		Data:  acc.Data.GetBinary(),
		Slot:  slot,
	}
}
