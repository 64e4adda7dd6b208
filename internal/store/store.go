// Package store holds the latest published scan result. Readers never block
// writers: every change swaps in a complete new snapshot.
package store

import (
	"sync/atomic"
	"time"

	"github.com/yourusername/arbstream/internal/models"
)

// Snapshot is one published scan result together with the scan status.
// A stored snapshot is never modified.
type Snapshot struct {
	Opportunities  []models.Opportunity `json:"opportunities"`
	LastScanTime   *time.Time           `json:"last_scan"`
	ScanInProgress bool                 `json:"scan_in_progress"`
	Version        uint64               `json:"version"`
}

// Status returns the scan status view of the snapshot
func (s *Snapshot) Status() models.ScanStatus {
	return models.ScanStatus{
		LastScanTime:     s.LastScanTime,
		OpportunityCount: len(s.Opportunities),
		ScanInProgress:   s.ScanInProgress,
	}
}

// Store is the single shared holder of the current snapshot
type Store struct {
	current atomic.Pointer[Snapshot]
}

// New creates an empty store
func New() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{})
	return s
}

// Publish replaces the opportunity list as of at, clears the in-progress
// flag and returns the stored snapshot. Version increases by one per publish.
func (s *Store) Publish(opps []models.Opportunity, at time.Time) *Snapshot {
	at = at.UTC()
	next := &Snapshot{
		Opportunities: append([]models.Opportunity(nil), opps...),
		LastScanTime:  &at,
	}
	for {
		prev := s.current.Load()
		next.Version = prev.Version + 1
		if s.current.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// SetScanInProgress records whether a scan is running
func (s *Store) SetScanInProgress(running bool) {
	for {
		prev := s.current.Load()
		if prev.ScanInProgress == running {
			return
		}
		next := *prev
		next.ScanInProgress = running
		if s.current.CompareAndSwap(prev, &next) {
			return
		}
	}
}

// Snapshot returns a deep copy of the current snapshot
func (s *Store) Snapshot() Snapshot {
	snap := s.current.Load()
	out := Snapshot{
		Opportunities:  make([]models.Opportunity, len(snap.Opportunities)),
		ScanInProgress: snap.ScanInProgress,
		Version:        snap.Version,
	}
	for i, opp := range snap.Opportunities {
		opp.Legs = append([]models.Leg(nil), opp.Legs...)
		out.Opportunities[i] = opp
	}
	if snap.LastScanTime != nil {
		t := *snap.LastScanTime
		out.LastScanTime = &t
	}
	return out
}

// Opportunities returns a copy of the published opportunities, best first
func (s *Store) Opportunities() []models.Opportunity {
	return s.Snapshot().Opportunities
}

// Status describes the latest publish and whether a scan is running
func (s *Store) Status() models.ScanStatus {
	snap := s.Snapshot()
	return snap.Status()
}

// ScanInProgress reports whether a scan is running
func (s *Store) ScanInProgress() bool {
	return s.current.Load().ScanInProgress
}
