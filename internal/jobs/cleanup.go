package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldtrack/tracker-go/internal/repository"
)

// CleanupJob abandons sessions left active past the stale horizon and
// purges abandoned sessions past the retention window.
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	staleAge    time.Duration
	retention   time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	staleAge time.Duration,
	retention time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		staleAge:    staleAge,
		retention:   retention,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	count, err := j.sessionRepo.AbandonStale(ctx, now.Add(-j.staleAge))
	if err != nil {
		log.Error().Err(err).Msg("failed to abandon stale sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("abandoned stale sessions")
	}

	count, err = j.sessionRepo.DeleteAbandonedBefore(ctx, now.Add(-j.retention))
	if err != nil {
		log.Error().Err(err).Msg("failed to purge abandoned sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("purged abandoned sessions")
	}
}
