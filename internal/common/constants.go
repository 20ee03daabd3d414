// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID    = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// IsTokenProgram reports whether owner is the SPL Token or Token-2022 program.
func IsTokenProgram(owner solana.PublicKey) bool {
	return owner.Equals(TokenProgramID) || owner.Equals(Token2022ID)
}
