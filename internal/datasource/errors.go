package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net"
)

// Error codes
const (
	ErrCodeTimeout     = "timeout"
	ErrCodeParse       = "parse_error"
	ErrCodeUnavailable = "unavailable"
)

// Sentinels matched with errors.Is against a *SourceError
var (
	ErrSourceTimeout     = errors.New("source timed out")
	ErrSourceParse       = errors.New("source response could not be parsed")
	ErrSourceUnavailable = errors.New("source unavailable")
)

// SourceError represents a failed source call
type SourceError struct {
	Source  string // Source name
	Code    string // One of the ErrCode constants
	Message string // Error message
	Err     error  // Underlying error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Is reports whether target is the sentinel for this error's code
func (e *SourceError) Is(target error) bool {
	switch e.Code {
	case ErrCodeTimeout:
		return target == ErrSourceTimeout
	case ErrCodeParse:
		return target == ErrSourceParse
	case ErrCodeUnavailable:
		return target == ErrSourceUnavailable
	}
	return false
}

// Unwrap returns the underlying error
func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new source error
func NewSourceError(source, code, message string, err error) *SourceError {
	return &SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Classify converts any error returned while talking to a source into a
// *SourceError. Errors that already are one pass through unchanged.
func Classify(source string, err error) *SourceError {
	if err == nil {
		return nil
	}

	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewSourceError(source, ErrCodeTimeout, "deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewSourceError(source, ErrCodeTimeout, "network timeout", err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return NewSourceError(source, ErrCodeParse, "malformed response", err)
	}

	return NewSourceError(source, ErrCodeUnavailable, "request failed", err)
}

// Code returns the error code of err, or ErrCodeUnavailable for unclassified errors
func Code(err error) string {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Code
	}
	return ErrCodeUnavailable
}
