package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arbstream/internal/models"
)

func opportunity(name string, margin float64) models.Opportunity {
	return models.Opportunity{
		ID:        uuid.New(),
		EventName: name,
		Margin:    margin,
		Legs: []models.Leg{
			{Bookmaker: "toto", Market: models.LabelHome, Odds: 2.1, Stake: 480},
			{Bookmaker: "bet365", Market: models.LabelAway, Odds: 2.1, Stake: 480},
		},
	}
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := New()

	assert.Empty(t, s.Opportunities())
	status := s.Status()
	assert.Nil(t, status.LastScanTime)
	assert.Zero(t, status.OpportunityCount)
	assert.False(t, status.ScanInProgress)
}

func TestPublish(t *testing.T) {
	s := New()
	at := time.Date(2026, 4, 12, 12, 0, 0, 0, time.UTC)

	snap := s.Publish([]models.Opportunity{opportunity("Ajax vs PSV", 4.7), opportunity("AZ vs Twente", 1.2)}, at)
	assert.Equal(t, uint64(1), snap.Version)

	status := s.Status()
	require.NotNil(t, status.LastScanTime)
	assert.Equal(t, at, *status.LastScanTime)
	assert.Equal(t, 2, status.OpportunityCount)
	assert.Equal(t, "Ajax vs PSV", s.Opportunities()[0].EventName)

	// an empty publish still refreshes the scan time
	later := at.Add(10 * time.Second)
	snap = s.Publish(nil, later)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Empty(t, s.Opportunities())
	assert.Equal(t, later, *s.Status().LastScanTime)
}

func TestReadersGetCopies(t *testing.T) {
	s := New()
	opps := []models.Opportunity{opportunity("Ajax vs PSV", 4.7)}
	s.Publish(opps, time.Now())

	opps[0].EventName = "mutated by publisher"
	got := s.Opportunities()
	assert.Equal(t, "Ajax vs PSV", got[0].EventName)

	got[0].Legs[0].Stake = 1
	*s.Status().LastScanTime = time.Time{}
	assert.Equal(t, int64(480), s.Opportunities()[0].Legs[0].Stake)
	assert.False(t, s.Status().LastScanTime.IsZero())
}

func TestScanInProgress(t *testing.T) {
	s := New()
	s.Publish([]models.Opportunity{opportunity("Ajax vs PSV", 4.7)}, time.Now())

	s.SetScanInProgress(true)
	assert.True(t, s.ScanInProgress())
	status := s.Status()
	assert.True(t, status.ScanInProgress)
	assert.Equal(t, 1, status.OpportunityCount, "flag changes keep the published list")
	assert.Equal(t, uint64(1), s.Snapshot().Version)

	s.SetScanInProgress(false)
	assert.False(t, s.Status().ScanInProgress)
}

func TestPublishClearsScanInProgress(t *testing.T) {
	s := New()
	s.SetScanInProgress(true)

	snap := s.Publish(nil, time.Now())
	assert.False(t, snap.ScanInProgress)
	assert.False(t, s.ScanInProgress())
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 200; i++ {
			batch := make([]models.Opportunity, i%5)
			for j := range batch {
				batch[j] = opportunity("event", float64(i))
			}
			s.Publish(batch, time.Now())
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				snap := s.Snapshot()
				// every opportunity in a snapshot comes from the same publish
				for _, opp := range snap.Opportunities {
					assert.Equal(t, snap.Opportunities[0].Margin, opp.Margin)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(200), s.Snapshot().Version)
}
