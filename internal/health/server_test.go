package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker() *Checker {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewChecker(Config{ServiceName: "arbstream", Version: "1.0.0", Logger: log})
}

func TestHandleHealth(t *testing.T) {
	c := newTestChecker()
	rec := httptest.NewRecorder()
	c.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "arbstream", resp.Service)
	assert.Equal(t, "1.0.0", resp.Version)
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		checks     map[string]Pinger
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "not marked ready",
			ready:      false,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "not_ready"},
		},
		{
			name:       "ready without dependencies",
			ready:      true,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"service": "ok"},
		},
		{
			name:  "failing dependency",
			ready: true,
			checks: map[string]Pinger{
				"database": PingerFunc(func(context.Context) error { return nil }),
				"redis":    PingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "ok", "database": "ok", "redis": "error: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChecker()
			c.SetReady(tt.ready)
			for name, p := range tt.checks {
				c.AddCheck(name, p)
			}

			rec := httptest.NewRecorder()
			c.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}
