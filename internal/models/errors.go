package models

import "errors"

// Custom errors
var (
	ErrInvalidOdds    = errors.New("odds must be a finite decimal greater than 1.0")
	ErrInvalidOutcome = errors.New("outcome requires a bookmaker and a market label")
	ErrNotFound       = errors.New("record not found")
)
