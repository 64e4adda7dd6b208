package models

import (
	"strings"
	"time"
)

// EventRef identifies an event as listed by a single source
type EventRef struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Name      string    `json:"name"`
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	FetchedAt time.Time `json:"fetched_at"`
}

var nameSeparators = []string{" vs ", " v ", " - ", " \u2013 ", " \u2014 "}

// Participants returns the home and away participant names, falling back to
// splitting the event name when the source did not provide them separately
func (r EventRef) Participants() []string {
	home := strings.TrimSpace(r.HomeTeam)
	away := strings.TrimSpace(r.AwayTeam)
	if home != "" && away != "" {
		return []string{home, away}
	}

	name := strings.TrimSpace(r.Name)
	for _, sep := range nameSeparators {
		parts := strings.Split(name, sep)
		if len(parts) != 2 {
			continue
		}
		h, a := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if h != "" && a != "" {
			return []string{h, a}
		}
	}
	if name == "" {
		return nil
	}
	return []string{name}
}

// DisplayName returns a human-readable event name
func (r EventRef) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return strings.Join(r.Participants(), " vs ")
}

// SourceEvent is one source's listing of an event together with the odds it quoted
type SourceEvent struct {
	Ref      EventRef  `json:"ref"`
	Outcomes []Outcome `json:"outcomes"`
}

// CanonicalEvent is the de-duplicated cross-source identity of one real-world event.
// It is built fresh every scan and never mutated afterwards.
type CanonicalEvent struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Participants []string             `json:"participants"`
	StartTime    time.Time            `json:"start_time"`
	Sources      []string             `json:"sources"`
	Quotes       map[string][]Outcome `json:"quotes"`
	Markets      map[string]Outcome   `json:"markets"`
}

// Bookmakers returns the number of distinct bookmakers quoting this event,
// across both the full quote lists and the best-price markets.
func (e *CanonicalEvent) Bookmakers() int {
	seen := make(map[string]struct{})
	for _, quotes := range e.Quotes {
		for _, q := range quotes {
			seen[q.Bookmaker] = struct{}{}
		}
	}
	for _, q := range e.Markets {
		seen[q.Bookmaker] = struct{}{}
	}
	return len(seen)
}
