package service

import (
	"context"
	"database/sql"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/database"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks that the quote cache database is reachable
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

func (s *SystemService) CheckVersion() string {
	return version.Version
}
