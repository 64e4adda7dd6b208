// Package datasource provides odds source adapters and the decorators the
// scanner wraps them in.
package datasource

import (
	"context"

	"github.com/yourusername/arbstream/internal/models"
)

// Source defines the interface for fetching events and odds from one provider.
// Every call may fail independently; errors are *SourceError values.
type Source interface {
	// Name returns the configured source name
	Name() string

	// ListEvents returns the events this source currently offers odds on
	ListEvents(ctx context.Context) ([]models.EventRef, error)

	// FetchOdds returns every outcome quoted for the given event
	FetchOdds(ctx context.Context, ref models.EventRef) ([]models.Outcome, error)
}

// Source types accepted in configuration
const (
	TypeOddsAPI = "odds_api"
	TypeMock    = "mock"
)
