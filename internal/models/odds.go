package models

import (
	"math"
	"strings"
	"time"
)

// Outcome is a single quoted price for one market label from one bookmaker
type Outcome struct {
	Bookmaker string    `json:"bookmaker" validate:"required"`
	Source    string    `json:"source"`
	Label     string    `json:"market" validate:"required"`
	Odds      float64   `json:"odds" validate:"required,gt=1"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Validate rejects outcomes that can never take part in an arbitrage
func (o Outcome) Validate() error {
	if strings.TrimSpace(o.Bookmaker) == "" || strings.TrimSpace(o.Label) == "" {
		return ErrInvalidOutcome
	}
	if math.IsNaN(o.Odds) || math.IsInf(o.Odds, 0) || o.Odds <= 1.0 {
		return ErrInvalidOdds
	}
	return nil
}

// BetterThan reports whether o is a strictly preferable best price over other.
// Higher odds win; equal odds prefer the earlier fetch, then the bookmaker name.
func (o Outcome) BetterThan(other Outcome) bool {
	if o.Odds != other.Odds {
		return o.Odds > other.Odds
	}
	if !o.FetchedAt.Equal(other.FetchedAt) {
		return o.FetchedAt.Before(other.FetchedAt)
	}
	return o.Bookmaker < other.Bookmaker
}

// MarketType is a named set of mutually exclusive and exhaustive outcome labels
type MarketType struct {
	Name   string   `json:"name" mapstructure:"name" validate:"required,markettype"`
	Labels []string `json:"labels" mapstructure:"labels" validate:"required,min=2,dive,required"`
}

// Canonical outcome labels
const (
	LabelHomeWin = "Home Win"
	LabelDraw    = "Draw"
	LabelAwayWin = "Away Win"
	LabelHome    = "Home"
	LabelAway    = "Away"
	LabelOver25  = "Over 2.5"
	LabelUnder25 = "Under 2.5"
)

// DefaultMarketTypes returns the market types scanned when none are configured
func DefaultMarketTypes() []MarketType {
	return []MarketType{
		{Name: "match_result", Labels: []string{LabelHomeWin, LabelDraw, LabelAwayWin}},
		{Name: "moneyline", Labels: []string{LabelHome, LabelAway}},
		{Name: "total_2_5", Labels: []string{LabelOver25, LabelUnder25}},
	}
}

// Vocabulary returns the set of every label used by the given market types
func Vocabulary(markets []MarketType) map[string]bool {
	vocab := make(map[string]bool)
	for _, m := range markets {
		for _, label := range m.Labels {
			vocab[label] = true
		}
	}
	return vocab
}
