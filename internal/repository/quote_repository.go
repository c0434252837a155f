package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
)

// QuoteRepository is a short-lived cache of successful price lookups in the
// quote_cache table. Entries are stored as JSON blobs with an expiration
// timestamp; expired entries are never returned.
type QuoteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewQuoteRepository creates a new QuoteRepository with the provided database connection.
func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db, now: time.Now}
}

// Store saves a successful price result with expiration = now + ttl.
// Failed results are not cached.
func (r *QuoteRepository) Store(ctx context.Context, result model.PriceResult, ttl time.Duration) error {
	if !result.OK() || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal quote for %s: %w", result.Ticker, err)
	}

	now := r.now()
	query := `
          INSERT OR REPLACE INTO quote_cache (ticker, data, fetched_at, expires_at)
          VALUES (?, ?, ?, ?)
      `
	if _, err := r.db.ExecContext(ctx, query, result.Ticker, string(data), now.Unix(), now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store quote for %s: %w", result.Ticker, err)
	}
	return nil
}

// GetIfFresh returns the cached result for ticker if it has not expired.
// The boolean is false when there is no fresh entry.
func (r *QuoteRepository) GetIfFresh(ctx context.Context, ticker string) (model.PriceResult, bool, error) {
	query := `
          SELECT data
          FROM quote_cache
          WHERE ticker = ? AND expires_at > ?
      `

	var data string
	err := r.db.QueryRowContext(ctx, query, ticker, r.now().Unix()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PriceResult{}, false, nil
	}
	if err != nil {
		return model.PriceResult{}, false, fmt.Errorf("failed to query quote cache for %s: %w", ticker, err)
	}

	var result model.PriceResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return model.PriceResult{}, false, fmt.Errorf("failed to unmarshal cached quote for %s: %w", ticker, err)
	}
	return result, true, nil
}

// DeleteExpired removes all expired entries and returns how many were deleted.
func (r *QuoteRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM quote_cache WHERE expires_at <= ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quotes: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for quote_cache: %w", err)
	}
	return deleted, nil
}

// Count returns the number of cached entries, expired or not.
func (r *QuoteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quote_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count quote cache: %w", err)
	}
	return count, nil
}
