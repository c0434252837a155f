package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/repository"
)

const cleanupTimeout = 30 * time.Second

// CleanupJob removes expired entries from the quote cache.
// It implements cron.Job and is scheduled by the server.
type CleanupJob struct {
	repo *repository.QuoteRepository
	log  zerolog.Logger
}

// NewCleanupJob creates a new quote cache cleanup job.
func NewCleanupJob(repo *repository.QuoteRepository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "quote_cache_cleanup").Logger(),
	}
}

// Run executes the cleanup job.
func (j *CleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	deleted, err := j.repo.DeleteExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired quotes")
		return
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired cache entries")
	}
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "quote_cache_cleanup"
}
