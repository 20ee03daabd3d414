package router

import "errors"

var (
	ErrNoRoute               = errors.New("no route found")
	ErrSameMint              = errors.New("input and output mint are the same")
	ErrMintNotInPool         = errors.New("mint not in pool")
	ErrPoolMintMismatch      = errors.New("pool does not connect current token")
	ErrInputMintMismatch     = errors.New("path does not start at input mint")
	ErrOutputMintMismatch    = errors.New("path does not end at output mint")
	ErrZeroOutput            = errors.New("hop produced zero output")
	ErrZeroInput             = errors.New("hop requires zero input")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidAmount         = errors.New("invalid amount")
)
