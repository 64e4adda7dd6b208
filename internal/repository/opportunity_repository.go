package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/database"
	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/store"
)

const historyTable = "opportunity_history"

var historyColumns = []string{
	"snapshot_version", "published_at", "opportunity_id", "event_id", "event_name",
	"market_type", "arbitrage_index", "margin", "guaranteed_profit",
	"total_investment", "roi", "legs", "detected_at",
}

// PostgresOpportunityRepository implements OpportunityHistoryRepository and
// doubles as a publish sink that appends every snapshot to history.
type PostgresOpportunityRepository struct {
	db     *database.DB
	logger *logrus.Entry
}

// NewPostgresOpportunityRepository creates a new opportunity history repository
func NewPostgresOpportunityRepository(db *database.DB, logger *logrus.Logger) *PostgresOpportunityRepository {
	return &PostgresOpportunityRepository{
		db:     db,
		logger: logger.WithField("component", "opportunity_history"),
	}
}

// Name identifies the repository as a publish sink
func (r *PostgresOpportunityRepository) Name() string {
	return "postgres"
}

// Publish appends the snapshot's opportunities to history
func (r *PostgresOpportunityRepository) Publish(ctx context.Context, snap *store.Snapshot) error {
	return r.Save(ctx, snap)
}

// Save inserts one row per opportunity using COPY
func (r *PostgresOpportunityRepository) Save(ctx context.Context, snap *store.Snapshot) error {
	if snap == nil || len(snap.Opportunities) == 0 {
		return nil
	}

	rows, err := historyRows(snap)
	if err != nil {
		return err
	}

	count, err := r.db.Pool().CopyFrom(
		ctx,
		pgx.Identifier{historyTable},
		historyColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert opportunity history: %w", err)
	}

	if count != int64(len(rows)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(rows))
	}

	r.logger.WithFields(logrus.Fields{
		"version": snap.Version,
		"rows":    count,
	}).Debug("Opportunity history saved")
	return nil
}

// Recent returns the most recently published opportunities, newest first
func (r *PostgresOpportunityRepository) Recent(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT snapshot_version, published_at, opportunity_id, event_id, event_name,
		       market_type, arbitrage_index, margin, guaranteed_profit,
		       total_investment, roi, legs, detected_at
		FROM opportunity_history
		ORDER BY published_at DESC, id ASC
		LIMIT $1
	`
	return r.query(ctx, query, limit)
}

// GetByOpportunityID returns every publication of one opportunity, oldest
// first. It wraps models.ErrNotFound when the opportunity was never published.
func (r *PostgresOpportunityRepository) GetByOpportunityID(ctx context.Context, id uuid.UUID) ([]HistoryRecord, error) {
	query := `
		SELECT snapshot_version, published_at, opportunity_id, event_id, event_name,
		       market_type, arbitrage_index, margin, guaranteed_profit,
		       total_investment, roi, legs, detected_at
		FROM opportunity_history
		WHERE opportunity_id = $1
		ORDER BY published_at ASC
	`
	records, err := r.query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("opportunity %s: %w", id, models.ErrNotFound)
	}
	return records, nil
}

func (r *PostgresOpportunityRepository) query(ctx context.Context, query string, args ...interface{}) ([]HistoryRecord, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var (
			rec     HistoryRecord
			version int64
			legs    []byte
		)
		o := &rec.Opportunity
		if err := rows.Scan(
			&version, &rec.PublishedAt, &o.ID, &o.EventID, &o.EventName,
			&o.MarketType, &o.ArbitrageIndex, &o.Margin, &o.GuaranteedProfit,
			&o.TotalInvestment, &o.ROI, &legs, &o.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity history: %w", err)
		}
		if err := json.Unmarshal(legs, &o.Legs); err != nil {
			return nil, fmt.Errorf("failed to decode legs for %s: %w", o.ID, err)
		}
		rec.SnapshotVersion = uint64(version)
		rec.PublishedAt = rec.PublishedAt.UTC()
		o.DetectedAt = o.DetectedAt.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity history: %w", err)
	}
	return records, nil
}

// historyRows builds COPY rows for a snapshot, one per opportunity
func historyRows(snap *store.Snapshot) ([][]interface{}, error) {
	publishedAt := time.Now().UTC()
	if snap.LastScanTime != nil {
		publishedAt = snap.LastScanTime.UTC()
	}

	rows := make([][]interface{}, len(snap.Opportunities))
	for i, o := range snap.Opportunities {
		legs, err := json.Marshal(o.Legs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode legs for %s: %w", o.ID, err)
		}
		rows[i] = []interface{}{
			int64(snap.Version), publishedAt, o.ID, o.EventID, o.EventName,
			o.MarketType, o.ArbitrageIndex, o.Margin, o.GuaranteedProfit,
			o.TotalInvestment, o.ROI, legs, o.DetectedAt.UTC(),
		}
	}
	return rows, nil
}

var _ OpportunityHistoryRepository = (*PostgresOpportunityRepository)(nil)
