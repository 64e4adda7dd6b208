// Package arbitrage detects arbitrage across bookmakers and turns it into
// whole-unit stake plans.
package arbitrage

import (
	"sort"
	"time"

	"github.com/yourusername/arbstream/internal/models"
)

// ArbitrageIndex returns S = Σ 1/odds. The terms are summed in ascending
// order so the result does not depend on the order of the input.
func ArbitrageIndex(odds []float64) float64 {
	sorted := append([]float64(nil), odds...)
	sort.Float64s(sorted)

	var s float64
	for _, o := range sorted {
		s += 1 / o
	}
	return s
}

// Margin converts an arbitrage index into a percentage edge
func Margin(index float64) float64 {
	return (1 - index) * 100
}

// Detector finds arbitrage candidates in canonical events
type Detector struct {
	markets []models.MarketType
}

// NewDetector creates a detector for the given market types
func NewDetector(markets []models.MarketType) *Detector {
	return &Detector{markets: markets}
}

// Detect returns one candidate per complete market whose best prices give
// S < 1 and come from at least two distinct bookmakers.
func (d *Detector) Detect(ev models.CanonicalEvent, detectedAt time.Time) []models.Candidate {
	// a single bookmaker can never cover every side against itself
	if ev.Bookmakers() < 2 {
		return nil
	}

	var candidates []models.Candidate
	for _, market := range d.markets {
		legs, ok := bestLegs(ev, market)
		if !ok {
			continue
		}
		if distinctBookmakers(legs) < 2 {
			continue
		}

		odds := make([]float64, len(legs))
		for i, leg := range legs {
			odds[i] = leg.Odds
		}
		index := ArbitrageIndex(odds)
		if index >= 1 {
			continue
		}

		candidates = append(candidates, models.Candidate{
			EventID:        ev.ID,
			EventName:      ev.Name,
			MarketType:     market.Name,
			ArbitrageIndex: index,
			Margin:         Margin(index),
			Legs:           legs,
			DetectedAt:     detectedAt,
		})
	}

	return candidates
}

// bestLegs picks the best price for every label of the market, in label order.
// It reports false when any label has no quote.
func bestLegs(ev models.CanonicalEvent, market models.MarketType) ([]models.Leg, bool) {
	legs := make([]models.Leg, 0, len(market.Labels))
	for _, label := range market.Labels {
		best, ok := BestPrice(ev.Quotes[label])
		if !ok {
			best, ok = ev.Markets[label]
		}
		if !ok {
			return nil, false
		}
		legs = append(legs, models.Leg{
			Bookmaker: best.Bookmaker,
			Market:    label,
			Odds:      best.Odds,
		})
	}
	return legs, true
}

// BestPrice returns the highest-odds quote. Ties go to the earliest fetch,
// then to the lexically smaller bookmaker.
func BestPrice(quotes []models.Outcome) (models.Outcome, bool) {
	if len(quotes) == 0 {
		return models.Outcome{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.BetterThan(best) {
			best = q
		}
	}
	return best, true
}

func distinctBookmakers(legs []models.Leg) int {
	seen := make(map[string]struct{}, len(legs))
	for _, leg := range legs {
		seen[leg.Bookmaker] = struct{}{}
	}
	return len(seen)
}
