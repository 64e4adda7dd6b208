package scanner

import (
	"context"

	"github.com/yourusername/arbstream/internal/store"
)

// Sink receives every published snapshot after it is stored. Sink failures
// are logged and never affect the scan.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap *store.Snapshot) error
}
