package datasource

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/arbstream/internal/models"
)

type fixture struct {
	id       string
	home     string
	away     string
	kickoffH int // hours after midnight UTC
}

var mockFixtures = []fixture{
	{id: "ajax-psv", home: "Ajax", away: "PSV", kickoffH: 18},
	{id: "feyenoord-az", home: "Feyenoord", away: "AZ", kickoffH: 20},
	{id: "utrecht-twente", home: "Utrecht", away: "Twente", kickoffH: 21},
}

// MockSource simulates one bookmaker with a deterministic seeded generator.
// Normal prices carry a 5-15% margin; with arbitrage bias roughly one call
// in three inflates one leg so that cross-book arbitrage can appear.
type MockSource struct {
	name          string
	arbitrageBias bool
	skew          time.Duration
	now           func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockSource creates a mock bookmaker source
func NewMockSource(name string, seed int64, arbitrageBias bool) *MockSource {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	// sources disagree on kickoff by up to four minutes
	skew := time.Duration(h.Sum32()%5) * time.Minute

	return &MockSource{
		name:          name,
		arbitrageBias: arbitrageBias,
		skew:          skew,
		now:           time.Now,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Name returns the bookmaker name
func (s *MockSource) Name() string {
	return s.name
}

// ListEvents returns today's fixtures
func (s *MockSource) ListEvents(ctx context.Context) ([]models.EventRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(s.name, err)
	}

	now := s.now().UTC()
	day := now.Truncate(24 * time.Hour)
	refs := make([]models.EventRef, 0, len(mockFixtures))
	for _, f := range mockFixtures {
		refs = append(refs, models.EventRef{
			ID:        f.id,
			Source:    s.name,
			Name:      f.home + " vs " + f.away,
			Sport:     "Football",
			HomeTeam:  f.home,
			AwayTeam:  f.away,
			StartTime: day.Add(time.Duration(f.kickoffH)*time.Hour + s.skew),
			FetchedAt: now,
		})
	}
	return refs, nil
}

// FetchOdds generates match result odds for an event
func (s *MockSource) FetchOdds(ctx context.Context, ref models.EventRef) ([]models.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(s.name, err)
	}

	s.mu.Lock()
	var home, draw, away float64
	if s.arbitrageBias && s.rng.Float64() < 0.3 {
		home, draw, away = s.arbFriendlyOdds()
	} else {
		home, draw, away = s.normalOdds()
	}
	s.mu.Unlock()

	fetchedAt := s.now().UTC()
	return []models.Outcome{
		{Bookmaker: s.name, Source: s.name, Label: models.LabelHomeWin, Odds: home, FetchedAt: fetchedAt},
		{Bookmaker: s.name, Source: s.name, Label: models.LabelDraw, Odds: draw, FetchedAt: fetchedAt},
		{Bookmaker: s.name, Source: s.name, Label: models.LabelAwayWin, Odds: away, FetchedAt: fetchedAt},
	}, nil
}

func (s *MockSource) normalOdds() (home, draw, away float64) {
	margin := s.uniform(0.05, 0.15)
	home = round2(s.uniform(1.8, 3.0) * (1 - margin))
	draw = round2(s.uniform(2.8, 4.0) * (1 - margin))
	away = round2(s.uniform(2.0, 5.0) * (1 - margin))
	return home, draw, away
}

func (s *MockSource) arbFriendlyOdds() (home, draw, away float64) {
	switch p := s.rng.Float64(); {
	case p < 0.33:
		home, draw, away = s.uniform(2.3, 2.8), s.uniform(3.0, 3.5), s.uniform(3.5, 4.5)
	case p < 0.66:
		home, draw, away = s.uniform(2.0, 2.5), s.uniform(4.0, 5.0), s.uniform(3.0, 4.0)
	default:
		home, draw, away = s.uniform(2.0, 2.5), s.uniform(3.0, 3.5), s.uniform(4.5, 6.0)
	}
	return round2(home), round2(draw), round2(away)
}

func (s *MockSource) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
