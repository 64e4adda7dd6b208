// Package matcher reconciles event listings reported independently by
// several sources into canonical events.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/models"
)

// DefaultTolerance is the start-time window within which listings with the
// same participants are treated as one event
const DefaultTolerance = 15 * time.Minute

// Matcher groups source listings into canonical events
type Matcher struct {
	vocabulary map[string]bool
	tolerance  time.Duration
	logger     *logrus.Entry
}

// New creates a matcher accepting the labels of the given market types
func New(markets []models.MarketType, tolerance time.Duration, logger *logrus.Logger) *Matcher {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Matcher{
		vocabulary: models.Vocabulary(markets),
		tolerance:  tolerance,
		logger:     logger.WithField("component", "matcher"),
	}
}

type keyedListing struct {
	key     string
	listing models.SourceEvent
}

type group struct {
	key      string
	anchor   models.EventRef
	bySource map[string]models.SourceEvent
}

// Match groups listings that denote the same real-world event. Listings
// without a peer within the tolerance window become single-source events.
// The result is sorted by start time, then name.
func (m *Matcher) Match(listings []models.SourceEvent) []models.CanonicalEvent {
	keyed := make([]keyedListing, 0, len(listings))
	for _, l := range listings {
		key := Key(l.Ref.Participants())
		if key == "" {
			m.logger.WithFields(logrus.Fields{
				"source":   l.Ref.Source,
				"event_id": l.Ref.ID,
			}).Warn("Dropping listing without participants")
			continue
		}
		keyed = append(keyed, keyedListing{key: key, listing: l})
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if !a.listing.Ref.StartTime.Equal(b.listing.Ref.StartTime) {
			return a.listing.Ref.StartTime.Before(b.listing.Ref.StartTime)
		}
		if a.key != b.key {
			return a.key < b.key
		}
		if a.listing.Ref.Source != b.listing.Ref.Source {
			return a.listing.Ref.Source < b.listing.Ref.Source
		}
		if a.listing.Ref.ID != b.listing.Ref.ID {
			return a.listing.Ref.ID < b.listing.Ref.ID
		}
		return a.listing.Ref.FetchedAt.Before(b.listing.Ref.FetchedAt)
	})

	var groups []*group
	open := make(map[string][]*group)
	for _, kl := range keyed {
		g := m.findGroup(open[kl.key], kl.listing.Ref.StartTime)
		if g == nil {
			g = &group{key: kl.key, anchor: kl.listing.Ref, bySource: make(map[string]models.SourceEvent)}
			open[kl.key] = append(open[kl.key], g)
			groups = append(groups, g)
		}
		g.add(kl.listing)
	}

	events := make([]models.CanonicalEvent, 0, len(groups))
	for _, g := range groups {
		events = append(events, m.build(g))
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		if events[i].Name != events[j].Name {
			return events[i].Name < events[j].Name
		}
		return events[i].ID < events[j].ID
	})
	return events
}

// findGroup returns the first group whose anchor starts within tolerance of start
func (m *Matcher) findGroup(candidates []*group, start time.Time) *group {
	for _, g := range candidates {
		diff := start.Sub(g.anchor.StartTime)
		if diff < 0 {
			diff = -diff
		}
		if diff <= m.tolerance {
			return g
		}
	}
	return nil
}

// add keeps one listing per source, preferring the later fetch
func (g *group) add(l models.SourceEvent) {
	existing, ok := g.bySource[l.Ref.Source]
	if !ok || l.Ref.FetchedAt.After(existing.Ref.FetchedAt) {
		g.bySource[l.Ref.Source] = l
	}
}

func (m *Matcher) build(g *group) models.CanonicalEvent {
	sources := make([]string, 0, len(g.bySource))
	for src := range g.bySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	quotes := make(map[string][]models.Outcome)
	for _, src := range sources {
		l := g.bySource[src]
		for _, o := range l.Outcomes {
			if o.Source == "" {
				o.Source = src
			}
			if o.FetchedAt.IsZero() {
				o.FetchedAt = l.Ref.FetchedAt
			}
			if err := o.Validate(); err != nil {
				m.logger.WithError(err).WithFields(logrus.Fields{
					"source":    src,
					"bookmaker": o.Bookmaker,
					"market":    o.Label,
					"odds":      o.Odds,
				}).Warn("Dropping invalid outcome")
				continue
			}
			if !m.vocabulary[o.Label] {
				m.logger.WithFields(logrus.Fields{
					"source":    src,
					"bookmaker": o.Bookmaker,
					"market":    o.Label,
				}).Warn("Dropping outcome with unknown market label")
				continue
			}
			quotes[o.Label] = append(quotes[o.Label], o)
		}
	}

	best := make(map[string]models.Outcome, len(quotes))
	for label, qs := range quotes {
		sort.SliceStable(qs, func(i, j int) bool {
			if qs[i].Bookmaker != qs[j].Bookmaker {
				return qs[i].Bookmaker < qs[j].Bookmaker
			}
			return qs[i].Source < qs[j].Source
		})
		top := qs[0]
		for _, q := range qs[1:] {
			if q.BetterThan(top) {
				top = q
			}
		}
		best[label] = top
	}

	return models.CanonicalEvent{
		ID:           g.key + "|" + g.anchor.StartTime.UTC().Format(time.RFC3339),
		Name:         strings.TrimSpace(g.anchor.DisplayName()),
		Participants: g.anchor.Participants(),
		StartTime:    g.anchor.StartTime.UTC(),
		Sources:      sources,
		Quotes:       quotes,
		Markets:      best,
	}
}
