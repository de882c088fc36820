package clientdata

import (
	"time"

	"github.com/rs/zerolog"
)

// staleAfter is how long cache entries survive before cleanup removes them.
// Quotes go stale for reads after the cache TTL, but keeping rows a while
// longer costs nothing and helps debugging.
const staleAfter = 24 * time.Hour

// CleanupJob removes stale entries from the quote cache.
// It should be scheduled to run daily.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new quote cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "quote_cache_cleanup").Logger(),
	}
}

// Run removes all stale quote cache entries.
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteStale(staleAfter)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete stale quotes")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Msg("Quote cache cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "quote_cache_cleanup"
}
