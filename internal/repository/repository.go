// Package repository persists published opportunity snapshots.
package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	History *PostgresOpportunityRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB, logger *logrus.Logger) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		History: NewPostgresOpportunityRepository(db, logger),
	}, nil
}
