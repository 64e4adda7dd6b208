package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/models"
)

// RetryPolicy bounds how a RetryingSource retries failed calls
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy is three attempts with backoff doubling from one second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, InitialBackoff: time.Second}
}

// RetryingSource retries failed calls of the wrapped source with exponential
// backoff. Parse errors are returned immediately.
type RetryingSource struct {
	inner  Source
	policy RetryPolicy
	logger *logrus.Entry
}

// NewRetryingSource wraps inner with the given retry policy
func NewRetryingSource(inner Source, policy RetryPolicy, logger *logrus.Logger) *RetryingSource {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &RetryingSource{
		inner:  inner,
		policy: policy,
		logger: logger.WithFields(logrus.Fields{"component": "retrying_source", "source": inner.Name()}),
	}
}

// Name returns the wrapped source's name
func (s *RetryingSource) Name() string {
	return s.inner.Name()
}

// ListEvents lists events, retrying transient failures
func (s *RetryingSource) ListEvents(ctx context.Context) ([]models.EventRef, error) {
	return withRetry(ctx, s, "list_events", func() ([]models.EventRef, error) {
		return s.inner.ListEvents(ctx)
	})
}

// FetchOdds fetches odds, retrying transient failures
func (s *RetryingSource) FetchOdds(ctx context.Context, ref models.EventRef) ([]models.Outcome, error) {
	return withRetry(ctx, s, "fetch_odds", func() ([]models.Outcome, error) {
		return s.inner.FetchOdds(ctx, ref)
	})
}

func withRetry[T any](ctx context.Context, s *RetryingSource, op string, call func() (T, error)) (T, error) {
	var zero T
	backoff := s.policy.InitialBackoff

	for attempt := 1; ; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}

		srcErr := Classify(s.inner.Name(), err)
		if errors.Is(srcErr, ErrSourceParse) || attempt >= s.policy.Attempts {
			return zero, srcErr
		}
		if ctx.Err() != nil {
			return zero, Classify(s.inner.Name(), ctx.Err())
		}

		s.logger.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
			"backoff":   backoff.String(),
			"code":      srcErr.Code,
		}).Debug("Retrying source call")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, Classify(s.inner.Name(), ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
	}
}
