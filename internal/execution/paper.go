package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/logger"
	"github.com/yourusername/arbstream/internal/metrics"
)

// PaperStats counts simulated placements
type PaperStats struct {
	Placed      int64 `json:"placed"`
	Rejected    int64 `json:"rejected"`
	TotalStaked int64 `json:"total_staked"`
}

// PaperExecutor simulates bet placement without contacting any bookmaker
type PaperExecutor struct {
	audit  *logger.AuditLogger
	logger *logrus.Entry
	reject map[string]bool
	now    func() time.Time

	mu    sync.Mutex
	stats PaperStats
}

// NewPaperExecutor creates a paper executor. Bets at any bookmaker listed in
// reject fail with ErrBookmakerRejected.
func NewPaperExecutor(log *logrus.Logger, reject ...string) *PaperExecutor {
	rejected := make(map[string]bool, len(reject))
	for _, b := range reject {
		rejected[b] = true
	}
	return &PaperExecutor{
		audit:  logger.NewAuditLogger(log),
		logger: log.WithField("component", "paper_executor"),
		reject: rejected,
		now:    time.Now,
	}
}

// PlaceBet records a simulated bet
func (p *PaperExecutor) PlaceBet(ctx context.Context, bookmaker, market string, stake int64) (*Confirmation, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stake <= 0 {
		p.recordRejected(bookmaker)
		return nil, fmt.Errorf("%w: %d", ErrInvalidStake, stake)
	}
	if p.reject[bookmaker] {
		p.recordRejected(bookmaker)
		return nil, ErrBookmakerRejected
	}

	conf := &Confirmation{
		ID:        uuid.New().String(),
		Bookmaker: bookmaker,
		Market:    market,
		Stake:     stake,
		PlacedAt:  p.now().UTC(),
		Paper:     true,
	}

	p.mu.Lock()
	p.stats.Placed++
	p.stats.TotalStaked += stake
	p.mu.Unlock()

	metrics.RecordBetPlaced(bookmaker, time.Since(start).Seconds())
	p.audit.LogBetPlaced(conf.ID, bookmaker, market, stake, true)
	return conf, nil
}

// Stats returns a copy of the placement counters
func (p *PaperExecutor) Stats() PaperStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *PaperExecutor) recordRejected(bookmaker string) {
	p.mu.Lock()
	p.stats.Rejected++
	p.mu.Unlock()
	metrics.RecordBetFailed(bookmaker)
}
