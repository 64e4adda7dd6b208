package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceErrorMatchesSentinel(t *testing.T) {
	tests := []struct {
		code     string
		sentinel error
	}{
		{ErrCodeTimeout, ErrSourceTimeout},
		{ErrCodeParse, ErrSourceParse},
		{ErrCodeUnavailable, ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("scan: %w", NewSourceError("toto", tt.code, "boom", nil))
			assert.ErrorIs(t, err, tt.sentinel)
			for _, other := range []error{ErrSourceTimeout, ErrSourceParse, ErrSourceUnavailable} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, err, other)
				}
			}
		})
	}
}

func TestSourceErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewSourceError("bet365", ErrCodeUnavailable, "request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bet365: unavailable: request failed (connection reset)", err.Error())
}

func TestClassify(t *testing.T) {
	var syntaxErr error = &json.SyntaxError{Offset: 3}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"json syntax", syntaxErr, ErrCodeParse},
		{"anything else", errors.New("refused"), ErrCodeUnavailable},
		{"cancelled", context.Canceled, ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("toto", tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, "toto", got.Source)
			assert.Equal(t, tt.code, Code(got))
		})
	}

	assert.Nil(t, Classify("toto", nil))

	existing := NewSourceError("unibet", ErrCodeParse, "bad", nil)
	assert.Same(t, existing, Classify("toto", fmt.Errorf("wrap: %w", existing)))
}
