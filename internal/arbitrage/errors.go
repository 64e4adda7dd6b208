package arbitrage

import "errors"

// Custom errors
var (
	// ErrStakeRounding means whole-unit stakes could not keep a positive guaranteed profit
	ErrStakeRounding = errors.New("stake rounding destroyed the guaranteed profit")
	// ErrNotArbitrage means the candidate's arbitrage index is not below 1
	ErrNotArbitrage = errors.New("arbitrage index is not below 1")
	// ErrInvalidBankroll means the bankroll is not a positive amount
	ErrInvalidBankroll = errors.New("bankroll must be positive")
)
