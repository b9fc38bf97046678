package trading

import "errors"

var (
	ErrInvalidSymbol      = errors.New("invalid stock symbol")
	ErrInvalidShareCount  = errors.New("invalid number of shares")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrUnknownUser        = errors.New("unknown user")
)
