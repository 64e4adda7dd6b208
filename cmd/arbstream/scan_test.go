package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/store"
)

func TestPrintOpportunities(t *testing.T) {
	at := time.Date(2026, 4, 12, 12, 0, 0, 0, time.UTC)
	st := store.New()

	var empty bytes.Buffer
	emptySnap := st.Snapshot()
	printOpportunities(&empty, &emptySnap)
	assert.Equal(t, "No arbitrage opportunities found\n", empty.String())

	snap := st.Publish([]models.Opportunity{{
		EventName:  "Ajax vs PSV",
		MarketType: "match_result",
		Legs: []models.Leg{
			{Bookmaker: "toto", Market: models.LabelHomeWin, Odds: 2.5, Stake: 428},
			{Bookmaker: "bet365", Market: models.LabelDraw, Odds: 3.5, Stake: 305},
			{Bookmaker: "unibet", Market: models.LabelAwayWin, Odds: 4.0, Stake: 267},
		},
		Margin:           6.428571,
		GuaranteedProfit: 67.5,
		TotalInvestment:  1000,
		ROI:              6.75,
	}}, at)

	var buf bytes.Buffer
	printOpportunities(&buf, snap)
	out := buf.String()
	assert.Contains(t, out, "EVENT")
	assert.Contains(t, out, "Ajax vs PSV")
	assert.Contains(t, out, "6.43%")
	assert.Contains(t, out, "toto Home Win @2.50 x428, bet365 Draw @3.50 x305, unibet Away Win @4.00 x267")
	assert.Contains(t, out, "1 opportunities as of 2026-04-12T12:00:00Z")
}
