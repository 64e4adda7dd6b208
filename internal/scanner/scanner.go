// Package scanner drives the scan loop: it fans out to every odds source,
// runs the matched results through detection and stake allocation, and
// publishes the outcome as one atomic snapshot.
package scanner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/arbstream/internal/arbitrage"
	"github.com/yourusername/arbstream/internal/config"
	"github.com/yourusername/arbstream/internal/datasource"
	"github.com/yourusername/arbstream/internal/logger"
	"github.com/yourusername/arbstream/internal/matcher"
	"github.com/yourusername/arbstream/internal/metrics"
	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/store"
)

// Config holds scanner settings
type Config struct {
	Markets          []models.MarketType
	MatchTolerance   time.Duration
	Bankroll         float64
	BankrollCeiling  float64
	MinMarginPercent float64
	MaxAdjustRounds  int
	SourceTimeout    time.Duration
	ScanTimeout      time.Duration
	SinkTimeout      time.Duration
}

// ConfigFrom derives scanner settings from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Markets:          cfg.MarketTypes(),
		MatchTolerance:   cfg.MatchTolerance(),
		Bankroll:         cfg.Scanner.Bankroll,
		BankrollCeiling:  cfg.Scanner.BankrollCeiling,
		MinMarginPercent: cfg.Scanner.MinMarginPercent,
		MaxAdjustRounds:  cfg.Scanner.MaxAdjustRounds,
		SourceTimeout:    cfg.SourceTimeout(),
		ScanTimeout:      cfg.ScanTimeout(),
	}
}

func (c *Config) applyDefaults() {
	if len(c.Markets) == 0 {
		c.Markets = models.DefaultMarketTypes()
	}
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = 10 * time.Second
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = 30 * time.Second
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = 5 * time.Second
	}
}

// Scanner owns the scan state machine and is the only writer of the store.
// At most one scan runs at a time; triggers that arrive during a scan are
// dropped rather than queued.
type Scanner struct {
	cfg       Config
	sources   []datasource.Source
	matcher   *matcher.Matcher
	detector  *arbitrage.Detector
	allocator *arbitrage.Allocator
	store     *store.Store
	sinks     []Sink
	audit     *logger.AuditLogger
	logger    *logrus.Entry
	now       func() time.Time

	state  atomic.Int32
	sinkMu sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scanner over the given sources publishing into st
func New(cfg Config, sources []datasource.Source, st *store.Store, log *logrus.Logger, sinks ...Sink) *Scanner {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Scanner{
		cfg:       cfg,
		sources:   sources,
		matcher:   matcher.New(cfg.Markets, cfg.MatchTolerance, log),
		detector:  arbitrage.NewDetector(cfg.Markets),
		allocator: arbitrage.NewAllocator(cfg.BankrollCeiling, cfg.MaxAdjustRounds),
		store:     st,
		sinks:     sinks,
		audit:     logger.NewAuditLogger(log),
		logger:    log.WithField("component", "scanner"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State returns the current lifecycle state
func (s *Scanner) State() State {
	return State(s.state.Load())
}

// Trigger starts a background scan and returns immediately. It reports
// false when a scan is already in flight, in which case nothing is queued.
func (s *Scanner) Trigger() bool {
	if !s.acquire() {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scan(s.ctx)
	}()
	return true
}

// RunOnce performs one full scan in the caller's goroutine and returns the
// published snapshot. It fails only when another scan is in flight.
func (s *Scanner) RunOnce(ctx context.Context) (*store.Snapshot, error) {
	if !s.acquire() {
		return nil, ErrScanInProgress
	}
	return s.scan(ctx), nil
}

// Stop cancels background scans and waits for them to finish publishing
func (s *Scanner) Stop() {
	s.cancel()
	s.wg.Wait()
}

// acquire moves Idle to Scanning and raises the in-progress flag
func (s *Scanner) acquire() bool {
	if s.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		s.store.SetScanInProgress(true)
		metrics.SetScanInProgress(true)
		return true
	}
	metrics.RecordScanSkipped()
	s.logger.Debug("Scan already in progress, trigger ignored")
	return false
}

func (s *Scanner) scan(ctx context.Context) *store.Snapshot {
	released := false
	release := func() {
		if !released {
			released = true
			metrics.SetScanInProgress(false)
			s.state.Store(int32(StateIdle))
		}
	}
	defer release()

	scanID := uuid.New().String()
	log := s.logger.WithField("scan_id", scanID)
	started := s.now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ScanTimeout)
	listings := s.fetchAll(fetchCtx, log)
	cancel()

	s.state.Store(int32(StatePublishing))
	opps := s.evaluate(listings, s.now().UTC(), log)
	snap := s.store.Publish(opps, s.now())

	duration := s.now().Sub(started)
	best := 0.0
	if len(opps) > 0 {
		best = opps[0].Margin
	}
	metrics.RecordScan(duration.Seconds(), len(opps), best)

	for _, opp := range opps {
		s.audit.LogOpportunityPublished(scanID, opp.ID.String(), opp.EventName, opp.MarketType,
			opp.Margin, opp.GuaranteedProfit, opp.TotalInvestment, opp.DetectedAt)
	}
	log.WithFields(logrus.Fields{
		"listings":      len(listings),
		"opportunities": len(opps),
		"best_margin":   best,
		"duration":      duration.String(),
		"version":       snap.Version,
	}).Info("Scan completed")

	// Sinks run once the scanner is Idle; sinkMu keeps deliveries in version order.
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	release()
	s.publishToSinks(ctx, snap, log)
	return snap
}

// fetchAll queries every source concurrently. Listings are collected as they
// arrive so whatever completed before the deadline is kept. Once ctx is done
// the scan moves on without waiting for sources that ignore cancellation;
// anything they deliver afterwards is dropped.
func (s *Scanner) fetchAll(ctx context.Context, log *logrus.Entry) []models.SourceEvent {
	var (
		mu       sync.Mutex
		listings []models.SourceEvent
		cutoff   bool
		failed   atomic.Int32
		finished atomic.Int32
		g        errgroup.Group
	)

	collect := func(l models.SourceEvent) {
		mu.Lock()
		defer mu.Unlock()
		if cutoff {
			return
		}
		listings = append(listings, l)
	}

	for _, src := range s.sources {
		src := src
		g.Go(func() error {
			defer finished.Add(1)

			start := time.Now()
			err := s.fetchSource(ctx, src, collect)
			elapsed := time.Since(start).Seconds()
			if err != nil {
				failed.Add(1)
				srcErr := datasource.Classify(src.Name(), err)
				metrics.RecordSourceFetch(src.Name(), "failure", elapsed)
				metrics.RecordSourceFailure(src.Name(), datasource.Code(srcErr))
				log.WithError(srcErr).WithField("source", src.Name()).Warn("Source failed, continuing without it")
				return nil
			}
			metrics.RecordSourceFetch(src.Name(), "success", elapsed)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if pending := len(s.sources) - int(finished.Load()); pending > 0 {
			log.WithField("pending", pending).Warn("Scan deadline reached, abandoning unfinished sources")
		}
	}

	mu.Lock()
	cutoff = true
	out := listings
	mu.Unlock()

	if len(s.sources) > 0 && int(failed.Load()) == len(s.sources) {
		log.WithField("sources", len(s.sources)).Warn("All sources failed, publishing an empty scan")
	}
	return out
}

// fetchSource lists events and fetches odds for each under the per-source
// timeout. It fails only when nothing at all could be fetched.
func (s *Scanner) fetchSource(ctx context.Context, src datasource.Source, collect func(models.SourceEvent)) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	refs, err := src.ListEvents(ctx)
	if err != nil {
		return err
	}

	var lastErr error
	fetched := 0
	for _, ref := range refs {
		if ref.Source == "" {
			ref.Source = src.Name()
		}
		outcomes, err := src.FetchOdds(ctx, ref)
		if err != nil {
			lastErr = err
			s.logger.WithError(err).WithFields(logrus.Fields{
				"source": src.Name(),
				"event":  ref.DisplayName(),
			}).Debug("Failed to fetch odds")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		collect(models.SourceEvent{Ref: ref, Outcomes: outcomes})
		fetched++
	}

	if fetched == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// evaluate turns merged listings into the sorted opportunity list. It is a
// pure function of its inputs.
func (s *Scanner) evaluate(listings []models.SourceEvent, detectedAt time.Time, log *logrus.Entry) []models.Opportunity {
	events := s.matcher.Match(listings)
	metrics.RecordCanonicalEvents(len(events))

	opps := make([]models.Opportunity, 0)
	for _, ev := range events {
		for _, c := range s.detector.Detect(ev, detectedAt) {
			metrics.RecordOpportunityDetected()

			if c.Margin < s.cfg.MinMarginPercent {
				metrics.RecordOpportunityDiscarded("below_min_margin")
				continue
			}

			opp, err := s.allocator.Allocate(c, s.cfg.Bankroll)
			if err != nil {
				fields := logrus.Fields{"event_name": c.EventName, "market_type": c.MarketType, "margin": c.Margin}
				if errors.Is(err, arbitrage.ErrStakeRounding) {
					metrics.RecordOpportunityDiscarded("stake_rounding")
					log.WithFields(fields).Debug("Dropped opportunity that rounding made unprofitable")
				} else {
					metrics.RecordOpportunityDiscarded("allocation_error")
					log.WithError(err).WithFields(fields).Warn("Failed to allocate stakes")
				}
				continue
			}
			check := arbitrage.VerifyPayout(opp.Legs)
			log.WithFields(logrus.Fields{
				"event_name":    opp.EventName,
				"market_type":   opp.MarketType,
				"payout_min":    check.Min,
				"payout_spread": check.Spread,
				"balanced":      check.Balanced,
			}).Debug("Allocated stakes")
			opps = append(opps, *opp)
		}
	}

	SortOpportunities(opps)
	return opps
}

// SortOpportunities orders by margin descending, then event name, market
// type and ID so the order is total.
func SortOpportunities(opps []models.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.Margin != b.Margin {
			return a.Margin > b.Margin
		}
		if a.EventName != b.EventName {
			return a.EventName < b.EventName
		}
		if a.MarketType != b.MarketType {
			return a.MarketType < b.MarketType
		}
		return a.ID.String() < b.ID.String()
	})
}

func (s *Scanner) publishToSinks(ctx context.Context, snap *store.Snapshot, log *logrus.Entry) {
	for _, sink := range s.sinks {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SinkTimeout)
		err := sink.Publish(sinkCtx, snap)
		cancel()
		if err != nil {
			metrics.RecordSinkFailure(sink.Name())
			log.WithError(err).WithField("sink", sink.Name()).Warn("Failed to deliver snapshot")
		}
	}
}
