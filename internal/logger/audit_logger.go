// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Audit event types
const (
	EventOpportunityPublished = "opportunity_published"
	EventBetPlaced            = "bet_placed"
	EventBetFailed            = "bet_failed"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogOpportunityPublished records an opportunity that entered the published snapshot.
func (al *AuditLogger) LogOpportunityPublished(scanID, opportunityID, eventName, marketType string, margin, guaranteedProfit, totalInvestment float64, detectedAt time.Time) {
	al.WithFields(logrus.Fields{
		"event_type":        EventOpportunityPublished,
		"scan_id":           scanID,
		"opportunity_id":    opportunityID,
		"event_name":        eventName,
		"market_type":       marketType,
		"margin":            margin,
		"guaranteed_profit": guaranteedProfit,
		"total_investment":  totalInvestment,
		"timestamp":         detectedAt.Unix(),
	}).Info("Opportunity published")
}

// LogBetPlaced records a leg accepted by an executor.
func (al *AuditLogger) LogBetPlaced(confirmationID, bookmaker, market string, stake int64, paperTrading bool) {
	al.WithFields(logrus.Fields{
		"event_type":      EventBetPlaced,
		"confirmation_id": confirmationID,
		"bookmaker":       bookmaker,
		"market":          market,
		"stake":           stake,
		"paper_trading":   paperTrading,
	}).Info("Bet placement recorded")
}

// LogBetFailed records a leg the executor rejected. Failed legs are never retried.
func (al *AuditLogger) LogBetFailed(bookmaker, market string, stake int64, err error) {
	al.WithFields(logrus.Fields{
		"event_type": EventBetFailed,
		"bookmaker":  bookmaker,
		"market":     market,
		"stake":      stake,
		"error":      err.Error(),
	}).Warn("Bet placement failed")
}
