package datasource

import (
	"context"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/arbstream/internal/models"
)

const eventsCacheKey = "events"

// CachedSource caches the wrapped source's event listing for a TTL.
// Odds are never cached.
type CachedSource struct {
	inner     Source
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewCachedSource wraps inner, caching ListEvents for ttl
func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Name returns the wrapped source's name
func (s *CachedSource) Name() string {
	return s.inner.Name()
}

// ListEvents returns the cached listing when fresh, otherwise fetches and caches it
func (s *CachedSource) ListEvents(ctx context.Context) ([]models.EventRef, error) {
	if cached, found := s.cache.Get(eventsCacheKey); found {
		if refs, ok := cached.([]models.EventRef); ok {
			s.hitCount.Add(1)
			return append([]models.EventRef(nil), refs...), nil
		}
	}
	s.missCount.Add(1)

	refs, err := s.inner.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(eventsCacheKey, append([]models.EventRef(nil), refs...), s.ttl)
	return refs, nil
}

// FetchOdds always calls through to the wrapped source
func (s *CachedSource) FetchOdds(ctx context.Context, ref models.EventRef) ([]models.Outcome, error) {
	return s.inner.FetchOdds(ctx, ref)
}

// Invalidate drops the cached listing
func (s *CachedSource) Invalidate() {
	s.cache.Delete(eventsCacheKey)
}

// Stats returns cache hit and miss counts
func (s *CachedSource) Stats() (hits, misses uint64) {
	return s.hitCount.Load(), s.missCount.Load()
}
