package arbitrage

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arbstream/internal/models"
)

func candidate(odds ...float64) models.Candidate {
	books := []string{"toto", "bet365", "unibet", "pinnacle"}
	labels := []string{"L1", "L2", "L3", "L4"}
	legs := make([]models.Leg, len(odds))
	for i, o := range odds {
		legs[i] = models.Leg{Bookmaker: books[i%len(books)], Market: labels[i%len(labels)], Odds: o}
	}
	index := ArbitrageIndex(odds)
	return models.Candidate{
		EventID:        "ajax|psv|2026-04-12T18:00:00Z",
		EventName:      "Ajax vs PSV",
		MarketType:     "match_result",
		ArbitrageIndex: index,
		Margin:         Margin(index),
		Legs:           legs,
		DetectedAt:     fetched,
	}
}

func stakes(o *models.Opportunity) []int64 {
	out := make([]int64, len(o.Legs))
	for i, leg := range o.Legs {
		out[i] = leg.Stake
	}
	return out
}

func TestAllocateWorkedExample(t *testing.T) {
	a := NewAllocator(1000, 0)

	opp, err := a.Allocate(candidate(2.50, 3.50, 4.00), 1000)
	require.NoError(t, err)

	assert.Equal(t, []int64{428, 305, 267}, stakes(opp))
	assert.InDelta(t, 1000, opp.TotalInvestment, 1e-9)
	assert.InDelta(t, 67.5, opp.GuaranteedProfit, 1e-9)
	assert.InDelta(t, 6.75, opp.ROI, 1e-9)
	assert.InDelta(t, 6.428571, opp.Margin, 1e-6)
	assert.InDelta(t, 1067.5, opp.MinPayout(), 1e-9)
	assert.Equal(t, int64(1000), opp.StakeSum())
	assert.Equal(t, "Ajax vs PSV", opp.EventName)
	assert.Equal(t, fetched, opp.DetectedAt)
}

func TestAllocateCases(t *testing.T) {
	tests := []struct {
		name       string
		odds       []float64
		bankroll   float64
		ceiling    float64
		wantStakes []int64
		wantProfit float64
		wantROI    float64
		wantErr    error
	}{
		{
			name:       "bankroll above ceiling is capped",
			odds:       []float64{2.50, 3.50, 4.00},
			bankroll:   2000,
			ceiling:    1000,
			wantStakes: []int64{428, 305, 267},
			wantProfit: 67.5,
			wantROI:    6.75,
		},
		{
			name:       "rounding shortfall is adjusted",
			odds:       []float64{1.25, 5.50},
			bankroll:   50,
			ceiling:    1000,
			wantStakes: []int64{41, 10},
			wantProfit: 0.25,
			wantROI:    0.25 / 51 * 100,
		},
		{
			name:       "adjusted plan over the ceiling is rescaled",
			odds:       []float64{1.25, 5.50},
			bankroll:   50,
			ceiling:    50,
			wantStakes: []int64{40, 9},
			wantProfit: 0.5,
			wantROI:    0.5 / 49 * 100,
		},
		{
			name:     "small bankroll rounds the profit away",
			odds:     []float64{2.50, 3.50, 4.00},
			bankroll: 10,
			ceiling:  1000,
			wantErr:  ErrStakeRounding,
		},
		{
			name:     "no arbitrage",
			odds:     []float64{2.10, 3.40, 4.20},
			bankroll: 1000,
			ceiling:  1000,
			wantErr:  ErrNotArbitrage,
		},
		{
			name:     "break even is not arbitrage",
			odds:     []float64{2.0, 2.0},
			bankroll: 1000,
			ceiling:  1000,
			wantErr:  ErrNotArbitrage,
		},
		{
			name:     "zero bankroll",
			odds:     []float64{2.50, 3.50, 4.00},
			bankroll: 0,
			ceiling:  1000,
			wantErr:  ErrInvalidBankroll,
		},
		{
			name:     "negative bankroll",
			odds:     []float64{2.50, 3.50, 4.00},
			bankroll: -5,
			ceiling:  1000,
			wantErr:  ErrInvalidBankroll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp, err := NewAllocator(tt.ceiling, DefaultMaxAdjustRounds).Allocate(candidate(tt.odds...), tt.bankroll)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, opp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStakes, stakes(opp))
			assert.InDelta(t, tt.wantProfit, opp.GuaranteedProfit, 1e-9)
			assert.InDelta(t, tt.wantROI, opp.ROI, 1e-9)
		})
	}
}

func TestAllocateRejectsBadLegs(t *testing.T) {
	a := NewAllocator(1000, 0)

	_, err := a.Allocate(candidate(1.5), 100)
	assert.ErrorIs(t, err, ErrNotArbitrage)

	c := candidate(2.5, 3.5, 4.0)
	c.Legs[1].Odds = 1.0
	_, err = a.Allocate(c, 100)
	assert.ErrorIs(t, err, models.ErrInvalidOdds)
}

func TestAllocateIsIdempotent(t *testing.T) {
	a := NewAllocator(1000, 0)
	c := candidate(2.50, 3.50, 4.00)

	first, err := a.Allocate(c, 1000)
	require.NoError(t, err)
	second, err := a.Allocate(c, 1000)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, OpportunityID(c), first.ID)

	other := candidate(2.50, 3.50, 4.10)
	assert.NotEqual(t, OpportunityID(c), OpportunityID(other))
}

func TestAllocatePropertiesHoldForRandomArbitrage(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := NewAllocator(5000, DefaultMaxAdjustRounds)

	allocated := 0
	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(3)
		odds := make([]float64, n)
		// fair odds for a random distribution, then inflated into arbitrage
		weights := make([]float64, n)
		var total float64
		for j := range weights {
			weights[j] = 0.1 + rng.Float64()
			total += weights[j]
		}
		edge := 1 + rng.Float64()*0.1
		for j := range odds {
			odds[j] = float64(int((total/weights[j])*edge*100)) / 100
			if odds[j] <= 1.01 {
				odds[j] = 1.01
			}
		}
		c := candidate(odds...)
		if c.ArbitrageIndex >= 1 {
			continue
		}

		bankroll := 10 + rng.Float64()*8000
		opp, err := a.Allocate(c, bankroll)
		if err != nil {
			require.ErrorIs(t, err, ErrStakeRounding, "odds %v bankroll %.2f", odds, bankroll)
			continue
		}
		allocated++

		total64 := float64(opp.StakeSum())
		assert.InDelta(t, total64, opp.TotalInvestment, 1e-9)
		assert.LessOrEqual(t, opp.TotalInvestment, 5000.0)
		assert.Greater(t, opp.GuaranteedProfit, 0.0)
		for _, leg := range opp.Legs {
			assert.GreaterOrEqual(t, leg.Payout()+1e-9, opp.TotalInvestment, "leg %s must cover the total", leg.Market)
		}
	}
	assert.Greater(t, allocated, 100)
}

func TestVerifyPayout(t *testing.T) {
	legs := []models.Leg{
		{Odds: 2.50, Stake: 428},
		{Odds: 3.50, Stake: 305},
		{Odds: 4.00, Stake: 267},
	}
	check := VerifyPayout(legs)
	assert.InDelta(t, 1067.5, check.Min, 1e-9)
	assert.InDelta(t, 1070, check.Max, 1e-9)
	assert.InDelta(t, 2.5, check.Spread, 1e-9)
	assert.False(t, check.Balanced)

	check = VerifyPayout([]models.Leg{{Odds: 2.0, Stake: 50}, {Odds: 2.02, Stake: 50}})
	assert.True(t, check.Balanced)

	assert.Equal(t, PayoutCheck{}, VerifyPayout(nil))
}
