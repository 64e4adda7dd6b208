package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/arbstream/internal/models"
)

// BetResponse is one leg of an opportunity as shown to the dashboard
type BetResponse struct {
	Bookmaker string  `json:"bookmaker"`
	Market    string  `json:"market"`
	Odds      float64 `json:"odds"`
	Stake     int64   `json:"stake"`
	BetURL    string  `json:"bet_url"`
}

// OpportunityResponse is the wire form of a published opportunity
type OpportunityResponse struct {
	ID               string        `json:"id"`
	EventName        string        `json:"event_name"`
	MarketType       string        `json:"market_type"`
	ProfitMargin     float64       `json:"profit_margin"`
	GuaranteedProfit float64       `json:"guaranteed_profit"`
	ROI              float64       `json:"roi"`
	TotalInvestment  float64       `json:"total_investment"`
	Bets             []BetResponse `json:"bets"`
	Timestamp        string        `json:"timestamp"`
}

// StatusResponse describes the latest scan
type StatusResponse struct {
	LastScan           *string `json:"last_scan"`
	OpportunitiesCount int     `json:"opportunities_count"`
	ScanInProgress     bool    `json:"scan_in_progress"`
}

// MessageResponse carries a human-readable message
type MessageResponse struct {
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// BookmakerLinks resolves the page a bettor should visit for a bookmaker
type BookmakerLinks map[string]string

// URL returns the configured page or a web search for unknown bookmakers
func (l BookmakerLinks) URL(bookmaker string) string {
	if u, ok := l[bookmaker]; ok && u != "" {
		return u
	}
	if u, ok := l[strings.ToLower(bookmaker)]; ok && u != "" {
		return u
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(bookmaker)
}

func newOpportunityResponse(opp models.Opportunity, links BookmakerLinks) OpportunityResponse {
	bets := make([]BetResponse, len(opp.Legs))
	for i, leg := range opp.Legs {
		bets[i] = BetResponse{
			Bookmaker: leg.Bookmaker,
			Market:    leg.Market,
			Odds:      leg.Odds,
			Stake:     leg.Stake,
			BetURL:    links.URL(leg.Bookmaker),
		}
	}
	return OpportunityResponse{
		ID:               opp.ID.String(),
		EventName:        opp.EventName,
		MarketType:       opp.MarketType,
		ProfitMargin:     opp.Margin,
		GuaranteedProfit: opp.GuaranteedProfit,
		ROI:              opp.ROI,
		TotalInvestment:  opp.TotalInvestment,
		Bets:             bets,
		Timestamp:        opp.DetectedAt.UTC().Format(time.RFC3339),
	}
}

func newOpportunityList(opps []models.Opportunity, links BookmakerLinks) []OpportunityResponse {
	out := make([]OpportunityResponse, len(opps))
	for i, opp := range opps {
		out[i] = newOpportunityResponse(opp, links)
	}
	return out
}

func newStatusResponse(status models.ScanStatus) StatusResponse {
	resp := StatusResponse{
		OpportunitiesCount: status.OpportunityCount,
		ScanInProgress:     status.ScanInProgress,
	}
	if status.LastScanTime != nil {
		ts := status.LastScanTime.UTC().Format(time.RFC3339)
		resp.LastScan = &ts
	}
	return resp
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
