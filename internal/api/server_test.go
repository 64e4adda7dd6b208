package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arbstream/internal/health"
	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/store"
)

var detected = time.Date(2026, 4, 12, 12, 0, 0, 0, time.UTC)

type fakeTrigger struct {
	busy  bool
	calls atomic.Int32
}

func (f *fakeTrigger) Trigger() bool {
	f.calls.Add(1)
	return !f.busy
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(trigger ScanTrigger) (*Server, *store.Store) {
	st := store.New()
	checker := health.NewChecker(health.Config{ServiceName: "arbstream", Logger: testLogger()})
	checker.SetReady(true)
	srv := NewServer(Config{
		ServiceName:    "ArbStream",
		Version:        "1.0.0",
		MetricsEnabled: true,
		Bookmakers:     map[string]string{"bet365": "https://www.bet365.com/"},
	}, st, trigger, checker, testLogger())
	return srv, st
}

func workedOpportunity() models.Opportunity {
	return models.Opportunity{
		ID:         uuid.MustParse("7b0f3f7e-9d57-5c59-8d3c-2f8e1c4b6a10"),
		EventID:    "ajax|psv|2026-04-12T18:00:00Z",
		EventName:  "Ajax vs PSV",
		MarketType: "match_result",
		Legs: []models.Leg{
			{Bookmaker: "toto", Market: models.LabelHomeWin, Odds: 2.50, Stake: 428},
			{Bookmaker: "bet365", Market: models.LabelDraw, Odds: 3.50, Stake: 305},
			{Bookmaker: "unibet", Market: models.LabelAwayWin, Odds: 4.00, Stake: 267},
		},
		ArbitrageIndex:   0.9357142857,
		Margin:           6.4285714286,
		GuaranteedProfit: 67.5,
		TotalInvestment:  1000,
		ROI:              6.75,
		DetectedAt:       detected,
	}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestOpportunitiesEmpty(t *testing.T) {
	srv, _ := newTestServer(&fakeTrigger{})

	for _, path := range []string{"/opportunities", "/api/opportunities"} {
		rec := do(t, srv.Router(), http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `[]`, rec.Body.String())
	}
}

func TestOpportunities(t *testing.T) {
	srv, st := newTestServer(&fakeTrigger{})
	st.Publish([]models.Opportunity{workedOpportunity()}, detected)

	rec := do(t, srv.Router(), http.MethodGet, "/opportunities")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []OpportunityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)

	opp := got[0]
	assert.Equal(t, "Ajax vs PSV", opp.EventName)
	assert.InDelta(t, 6.43, opp.ProfitMargin, 0.01)
	assert.InDelta(t, 67.5, opp.GuaranteedProfit, 1e-9)
	assert.InDelta(t, 6.75, opp.ROI, 1e-9)
	assert.InDelta(t, 1000, opp.TotalInvestment, 1e-9)
	assert.Equal(t, "2026-04-12T12:00:00Z", opp.Timestamp)

	require.Len(t, opp.Bets, 3)
	assert.Equal(t, BetResponse{Bookmaker: "toto", Market: "Home Win", Odds: 2.5, Stake: 428,
		BetURL: "https://www.google.com/search?q=toto"}, opp.Bets[0])
	assert.Equal(t, "https://www.bet365.com/", opp.Bets[1].BetURL)

	// field names the dashboard reads
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"event_name", "profit_margin", "guaranteed_profit", "roi", "total_investment", "bets", "timestamp"} {
		assert.Contains(t, raw[0], key)
	}
}

func TestStatus(t *testing.T) {
	srv, st := newTestServer(&fakeTrigger{})

	rec := do(t, srv.Router(), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"last_scan":null,"opportunities_count":0,"scan_in_progress":false}`, rec.Body.String())

	st.Publish([]models.Opportunity{workedOpportunity()}, detected)
	st.SetScanInProgress(true)

	rec = do(t, srv.Router(), http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"last_scan":"2026-04-12T12:00:00Z","opportunities_count":1,"scan_in_progress":true}`, rec.Body.String())
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		busy    bool
		path    string
		wantMsg string
	}{
		{name: "starts a scan", path: "/scan", wantMsg: "Scan started"},
		{name: "coalesced while scanning", busy: true, path: "/scan", wantMsg: "Scan already in progress"},
		{name: "api prefix", path: "/api/scan", wantMsg: "Scan started"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &fakeTrigger{busy: tt.busy}
			srv, _ := newTestServer(trigger)

			rec := do(t, srv.Router(), http.MethodPost, tt.path)
			assert.Equal(t, http.StatusAccepted, rec.Code)

			var msg MessageResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
			assert.Equal(t, tt.wantMsg, msg.Message)
			assert.Equal(t, int32(1), trigger.calls.Load())
		})
	}
}

func TestTriggerFunc(t *testing.T) {
	calls := 0
	srv, _ := newTestServer(TriggerFunc(func() bool {
		calls++
		return false
	}))

	rec := do(t, srv.Router(), http.MethodPost, "/api/scan")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scan already in progress")
	assert.Equal(t, 1, calls)
}

func TestScanRejectsGet(t *testing.T) {
	srv, _ := newTestServer(&fakeTrigger{})
	rec := do(t, srv.Router(), http.MethodGet, "/scan")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{Error: "method_not_allowed", Message: "GET is not allowed on /scan", Code: 405}, body)
}

func TestUnknownRoutesReturnJSONErrors(t *testing.T) {
	srv, _ := newTestServer(&fakeTrigger{})

	for _, path := range []string{"/nope", "/api/nope"} {
		rec := do(t, srv.Router(), http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_found", body.Error)
		assert.Equal(t, http.StatusNotFound, body.Code)
		assert.Contains(t, body.Message, path)
	}
}

func TestServiceEndpoints(t *testing.T) {
	srv, _ := newTestServer(&fakeTrigger{})
	h := srv.Router()

	rec := do(t, h, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"ArbStream API","version":"1.0.0"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready").Code)

	rec = do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arbstream_")
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(&fakeTrigger{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBookmakerLinks(t *testing.T) {
	links := BookmakerLinks{"unibet_nl": "https://www.unibet.nl/"}

	assert.Equal(t, "https://www.unibet.nl/", links.URL("unibet_nl"))
	assert.Equal(t, "https://www.unibet.nl/", links.URL("Unibet_NL"))
	assert.Equal(t, "https://www.google.com/search?q=holland+casino", links.URL("holland casino"))
}

func TestWebsocketStreamsSnapshots(t *testing.T) {
	srv, st := newTestServer(&fakeTrigger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var msg SnapshotMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot", msg.Type)
	assert.Empty(t, msg.Opportunities)

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	snap := st.Publish([]models.Opportunity{workedOpportunity()}, detected)
	require.NoError(t, srv.Hub().Publish(context.Background(), snap))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, uint64(1), msg.Version)
	require.Len(t, msg.Opportunities, 1)
	assert.Equal(t, "Ajax vs PSV", msg.Opportunities[0].EventName)
	assert.Equal(t, 1, msg.Status.OpportunitiesCount)
}
