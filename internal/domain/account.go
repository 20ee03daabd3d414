package domain

import "github.com/gagliardetto/solana-go"

// RawAccount is one account as read from the chain. Slot is the context slot
// of the read.
type RawAccount struct {
	Owner solana.PublicKey
	Data  []byte
	Slot  uint64
}
