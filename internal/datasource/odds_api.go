package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/metrics"
	"github.com/yourusername/arbstream/internal/models"
)

// DefaultSportKeys are the leagues queried when none are configured
var DefaultSportKeys = []string{
	"soccer_netherlands_eredivisie",
	"soccer_epl",
	"soccer_germany_bundesliga",
}

// OddsAPIConfig configures an OddsAPISource
type OddsAPIConfig struct {
	Name       string
	APIKey     string
	BaseURL    string
	Region     string
	SportKeys  []string
	Bookmakers []string // optional allow-list of bookmaker keys
}

// OddsAPISource implements Source for The Odds API v4. One source yields
// quotes from every bookmaker the API aggregates.
type OddsAPISource struct {
	cfg        OddsAPIConfig
	httpClient *RateLimitedHTTPClient
	labels     *LabelNormalizer
	allowed    map[string]bool
	now        func() time.Time
	logger     *logrus.Entry
}

type oddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Markets []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

// NewOddsAPISource creates a new Odds API source
func NewOddsAPISource(cfg OddsAPIConfig, httpClient *RateLimitedHTTPClient, labels *LabelNormalizer, logger *logrus.Logger) *OddsAPISource {
	if len(cfg.SportKeys) == 0 {
		cfg.SportKeys = DefaultSportKeys
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var allowed map[string]bool
	if len(cfg.Bookmakers) > 0 {
		allowed = make(map[string]bool, len(cfg.Bookmakers))
		for _, b := range cfg.Bookmakers {
			allowed[b] = true
		}
	}

	return &OddsAPISource{
		cfg:        cfg,
		httpClient: httpClient,
		labels:     labels,
		allowed:    allowed,
		now:        time.Now,
		logger:     logger.WithFields(logrus.Fields{"component": "odds_api", "source": cfg.Name}),
	}
}

// Name returns the source name
func (s *OddsAPISource) Name() string {
	return s.cfg.Name
}

// ListEvents lists upcoming events across the configured sport keys.
// A sport that fails is skipped; the call fails only if every sport fails.
func (s *OddsAPISource) ListEvents(ctx context.Context) ([]models.EventRef, error) {
	fetchedAt := s.now().UTC()
	var refs []models.EventRef
	var lastErr error

	for _, sport := range s.cfg.SportKeys {
		var events []oddsAPIEvent
		if err := s.get(ctx, fmt.Sprintf("sports/%s/events", url.PathEscape(sport)), nil, &events); err != nil {
			s.logger.WithError(err).WithField("sport", sport).Warn("Failed to list events")
			lastErr = err
			continue
		}
		for _, ev := range events {
			refs = append(refs, models.EventRef{
				ID:        ev.ID,
				Source:    s.cfg.Name,
				Name:      ev.HomeTeam + " vs " + ev.AwayTeam,
				Sport:     sport,
				HomeTeam:  ev.HomeTeam,
				AwayTeam:  ev.AwayTeam,
				StartTime: ev.CommenceTime.UTC(),
				FetchedAt: fetchedAt,
			})
		}
	}

	if len(refs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return refs, nil
}

// FetchOdds fetches head-to-head and totals odds for one event from every bookmaker
func (s *OddsAPISource) FetchOdds(ctx context.Context, ref models.EventRef) ([]models.Outcome, error) {
	params := url.Values{}
	params.Set("regions", s.cfg.Region)
	params.Set("markets", "h2h,totals")
	params.Set("oddsFormat", "decimal")

	var ev oddsAPIEvent
	path := fmt.Sprintf("sports/%s/events/%s/odds", url.PathEscape(ref.Sport), url.PathEscape(ref.ID))
	if err := s.get(ctx, path, params, &ev); err != nil {
		return nil, err
	}

	return s.parseOdds(ev, s.now().UTC()), nil
}

// parseOdds converts one event payload into canonical outcomes
func (s *OddsAPISource) parseOdds(ev oddsAPIEvent, fetchedAt time.Time) []models.Outcome {
	var outcomes []models.Outcome
	for _, bm := range ev.Bookmakers {
		if s.allowed != nil && !s.allowed[bm.Key] {
			continue
		}
		for _, market := range bm.Markets {
			var labels map[int]string
			switch market.Key {
			case "h2h":
				labels = s.h2hLabels(ev, market)
			case "totals":
				labels = totalsLabels(market)
			default:
				continue
			}
			for i, out := range market.Outcomes {
				label, ok := labels[i]
				if !ok {
					continue
				}
				outcomes = append(outcomes, models.Outcome{
					Bookmaker: bm.Key,
					Source:    s.cfg.Name,
					Label:     label,
					Odds:      out.Price,
					FetchedAt: fetchedAt,
				})
			}
		}
	}
	return outcomes
}

// h2hLabels maps team names to Home Win/Draw/Away Win for three-way markets
// and to Home/Away when the market has no draw.
func (s *OddsAPISource) h2hLabels(ev oddsAPIEvent, market oddsAPIMarket) map[int]string {
	threeWay := false
	for _, out := range market.Outcomes {
		if label, ok := s.labels.Normalize(out.Name); ok && label == models.LabelDraw {
			threeWay = true
		}
	}

	labels := make(map[int]string, len(market.Outcomes))
	for i, out := range market.Outcomes {
		switch {
		case out.Name == ev.HomeTeam && threeWay:
			labels[i] = models.LabelHomeWin
		case out.Name == ev.HomeTeam:
			labels[i] = models.LabelHome
		case out.Name == ev.AwayTeam && threeWay:
			labels[i] = models.LabelAwayWin
		case out.Name == ev.AwayTeam:
			labels[i] = models.LabelAway
		case threeWay:
			if label, ok := s.labels.Normalize(out.Name); ok {
				labels[i] = label
			}
		default:
			if label, ok := s.labels.TwoWay(out.Name); ok {
				labels[i] = label
			}
		}
	}
	return labels
}

// totalsLabels keeps only the 2.5 goal line
func totalsLabels(market oddsAPIMarket) map[int]string {
	labels := make(map[int]string, 2)
	for i, out := range market.Outcomes {
		if out.Point == nil || *out.Point != 2.5 {
			continue
		}
		switch strings.ToLower(out.Name) {
		case "over":
			labels[i] = models.LabelOver25
		case "under":
			labels[i] = models.LabelUnder25
		}
	}
	return labels
}

func (s *OddsAPISource) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", s.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/%s?%s", s.cfg.BaseURL, path, params.Encode())

	resp, err := s.httpClient.Get(ctx, endpoint)
	if err != nil {
		return Classify(s.cfg.Name, err)
	}
	defer resp.Body.Close()

	s.recordQuota(resp.Header)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewSourceError(s.cfg.Name, ErrCodeUnavailable, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewSourceError(s.cfg.Name, ErrCodeUnavailable, "API rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewSourceError(s.cfg.Name, ErrCodeUnavailable,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return Classify(s.cfg.Name, ctx.Err())
		}
		return NewSourceError(s.cfg.Name, ErrCodeParse, "failed to parse response", err)
	}
	return nil
}

func (s *OddsAPISource) recordQuota(h http.Header) {
	remaining := h.Get("x-requests-remaining")
	if remaining == "" {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"requests_used":      h.Get("x-requests-used"),
		"requests_remaining": remaining,
	}).Debug("API usage")
	if v, err := strconv.ParseFloat(remaining, 64); err == nil {
		metrics.UpdateRequestsRemaining(s.cfg.Name, v)
	}
}
