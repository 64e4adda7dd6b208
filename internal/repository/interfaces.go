package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/arbstream/internal/models"
	"github.com/yourusername/arbstream/internal/store"
)

// HistoryRecord is one published opportunity as persisted in history
type HistoryRecord struct {
	SnapshotVersion uint64
	PublishedAt     time.Time
	Opportunity     models.Opportunity
}

// OpportunityHistoryRepository defines persistence for published opportunities
type OpportunityHistoryRepository interface {
	Save(ctx context.Context, snap *store.Snapshot) error
	Recent(ctx context.Context, limit int) ([]HistoryRecord, error)
	GetByOpportunityID(ctx context.Context, id uuid.UUID) ([]HistoryRecord, error)
}
