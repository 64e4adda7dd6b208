// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger is a dependency that can report its own reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// Ping calls f
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the checker.
type Config struct {
	ServiceName  string
	Version      string
	Commit       string
	CheckTimeout time.Duration
	Logger       *logrus.Logger
}

// Checker serves health and readiness for the service and its dependencies.
type Checker struct {
	serviceName string
	version     string
	commit      string
	timeout     time.Duration
	logger      *logrus.Entry

	mu     sync.RWMutex
	ready  bool
	checks map[string]Pinger
}

// NewChecker creates a checker. It starts out not ready.
func NewChecker(cfg Config) *Checker {
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}

	return &Checker{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		commit:      cfg.Commit,
		timeout:     timeout,
		logger:      log.WithField("component", "health"),
		checks:      make(map[string]Pinger),
	}
}

// AddCheck registers a dependency probed by the readiness endpoint
func (c *Checker) AddCheck(name string, p Pinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = p
}

// SetReady marks the service as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service is marked ready.
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// HandleHealth is the liveness check. It always succeeds while the process serves HTTP.
func (c *Checker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	c.write(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   c.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
		Commit:    c.commit,
	})
}

// HandleReady checks the ready flag and every registered dependency.
func (c *Checker) HandleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	c.mu.RLock()
	ready := c.ready
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	pingers := make(map[string]Pinger, len(c.checks))
	for k, v := range c.checks {
		pingers[k] = v
	}
	c.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]string, len(names)+1)
	allHealthy := ready
	if ready {
		checks["service"] = "ok"
	} else {
		checks["service"] = "not_ready"
	}

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := pingers[name].Ping(ctx)
		cancel()
		if err != nil {
			allHealthy = false
			checks[name] = fmt.Sprintf("error: %v", err)
			c.logger.WithError(err).WithField("check", name).Warn("Readiness check failed")
			continue
		}
		checks[name] = "ok"
	}

	resp := ReadyResponse{
		Status:   "ok",
		Service:  c.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	status := http.StatusOK
	if !allHealthy {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	c.write(w, status, resp)
}

func (c *Checker) write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.WithError(err).Error("Failed to encode health response")
	}
}
