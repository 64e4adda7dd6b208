// Package execution places the legs of a stake plan with bookmakers. Bets are
// financial actions: a failed leg is reported to the caller and never retried.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidStake is returned for stakes that are not positive whole units
	ErrInvalidStake = errors.New("stake must be a positive whole amount")
	// ErrBookmakerRejected is returned when a bookmaker refuses a bet
	ErrBookmakerRejected = errors.New("bookmaker rejected bet")
)

// Confirmation is a bookmaker's acceptance of one bet
type Confirmation struct {
	ID        string    `json:"id"`
	Bookmaker string    `json:"bookmaker"`
	Market    string    `json:"market"`
	Stake     int64     `json:"stake"`
	PlacedAt  time.Time `json:"placed_at"`
	Paper     bool      `json:"paper"`
}

// Executor places a single bet
type Executor interface {
	PlaceBet(ctx context.Context, bookmaker, market string, stake int64) (*Confirmation, error)
}

// ExecutionError describes a leg that could not be placed
type ExecutionError struct {
	Bookmaker string
	Market    string
	Stake     int64
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("place %d on %s at %s: %v", e.Stake, e.Market, e.Bookmaker, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
