package models

import (
	"time"

	"github.com/google/uuid"
)

// Leg is one side of a market with the bookmaker and odds chosen for it
type Leg struct {
	Bookmaker string  `json:"bookmaker"`
	Market    string  `json:"market"`
	Odds      float64 `json:"odds"`
	Stake     int64   `json:"stake"`
}

// Payout returns the gross return if this leg wins
func (l Leg) Payout() float64 {
	return float64(l.Stake) * l.Odds
}

// Candidate is a detected arbitrage before stakes are assigned
type Candidate struct {
	EventID        string    `json:"event_id"`
	EventName      string    `json:"event_name"`
	MarketType     string    `json:"market_type"`
	ArbitrageIndex float64   `json:"arbitrage_index"`
	Margin         float64   `json:"margin"`
	Legs           []Leg     `json:"legs"`
	DetectedAt     time.Time `json:"detected_at"`
}

// Opportunity is a finalized arbitrage with a whole-unit stake plan.
// It is never mutated once constructed.
type Opportunity struct {
	ID               uuid.UUID `json:"id"`
	EventID          string    `json:"event_id"`
	EventName        string    `json:"event_name"`
	MarketType       string    `json:"market_type"`
	Legs             []Leg     `json:"legs"`
	ArbitrageIndex   float64   `json:"arbitrage_index"`
	Margin           float64   `json:"profit_margin"`
	GuaranteedProfit float64   `json:"guaranteed_profit"`
	TotalInvestment  float64   `json:"total_investment"`
	ROI              float64   `json:"roi"`
	DetectedAt       time.Time `json:"detected_at"`
}

// MinPayout returns the smallest payout across all legs
func (o *Opportunity) MinPayout() float64 {
	if len(o.Legs) == 0 {
		return 0
	}
	lowest := o.Legs[0].Payout()
	for _, leg := range o.Legs[1:] {
		if p := leg.Payout(); p < lowest {
			lowest = p
		}
	}
	return lowest
}

// StakeSum returns the sum of all leg stakes
func (o *Opportunity) StakeSum() int64 {
	var sum int64
	for _, leg := range o.Legs {
		sum += leg.Stake
	}
	return sum
}

// ScanStatus describes the most recent scan
type ScanStatus struct {
	LastScanTime     *time.Time `json:"last_scan"`
	OpportunityCount int        `json:"opportunities_count"`
	ScanInProgress   bool       `json:"scan_in_progress"`
}
