package execution

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/logger"
	"github.com/yourusername/arbstream/internal/models"
)

// PlanResult is the outcome of placing every leg of an opportunity
type PlanResult struct {
	OpportunityID string
	Confirmations []Confirmation
	Failures      []*ExecutionError
}

// Complete reports whether every leg was placed
func (r *PlanResult) Complete() bool {
	return len(r.Failures) == 0
}

// PlanRunner places stake plans through an Executor
type PlanRunner struct {
	executor Executor
	audit    *logger.AuditLogger
	logger   *logrus.Entry
}

// NewPlanRunner creates a plan runner
func NewPlanRunner(exec Executor, log *logrus.Logger) *PlanRunner {
	return &PlanRunner{
		executor: exec,
		audit:    logger.NewAuditLogger(log),
		logger:   log.WithField("component", "plan_runner"),
	}
}

// Execute places each leg of opp exactly once, in leg order. Failed legs are
// collected as ExecutionErrors and returned joined; placement carries on
// with the remaining legs. Nothing is retried.
func (r *PlanRunner) Execute(ctx context.Context, opp models.Opportunity) (*PlanResult, error) {
	result := &PlanResult{OpportunityID: opp.ID.String()}
	var errs []error

	for _, leg := range opp.Legs {
		if err := ctx.Err(); err != nil {
			execErr := &ExecutionError{Bookmaker: leg.Bookmaker, Market: leg.Market, Stake: leg.Stake, Err: err}
			result.Failures = append(result.Failures, execErr)
			errs = append(errs, execErr)
			continue
		}

		conf, err := r.executor.PlaceBet(ctx, leg.Bookmaker, leg.Market, leg.Stake)
		if err != nil {
			execErr := &ExecutionError{Bookmaker: leg.Bookmaker, Market: leg.Market, Stake: leg.Stake, Err: err}
			result.Failures = append(result.Failures, execErr)
			errs = append(errs, execErr)
			r.audit.LogBetFailed(leg.Bookmaker, leg.Market, leg.Stake, err)
			continue
		}
		result.Confirmations = append(result.Confirmations, *conf)
	}

	entry := r.logger.WithFields(logrus.Fields{
		"opportunity_id": result.OpportunityID,
		"event_name":     opp.EventName,
		"placed":         len(result.Confirmations),
		"failed":         len(result.Failures),
	})
	if !result.Complete() {
		entry.Warn("Stake plan partially placed")
		return result, errors.Join(errs...)
	}
	entry.Info("Stake plan placed")
	return result, nil
}
