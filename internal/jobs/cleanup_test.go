package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/tracker-go/internal/repository"
)

type cleanupRepo struct {
	repository.SessionRepository

	abandonCutoff time.Time
	abandonErr    error
	deleteCutoff  time.Time
	deleteCalled  bool
}

func (r *cleanupRepo) AbandonStale(ctx context.Context, olderThan time.Time) (int64, error) {
	r.abandonCutoff = olderThan
	return 2, r.abandonErr
}

func (r *cleanupRepo) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.deleteCutoff = cutoff
	r.deleteCalled = true
	return 1, nil
}

func (r *cleanupRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return r
}

func TestCleanup_Cutoffs(t *testing.T) {
	repo := &cleanupRepo{}
	job := NewCleanupJob(repo, 12*time.Hour, 90*24*time.Hour, time.Hour)

	before := time.Now()
	job.cleanup()
	after := time.Now()

	// stale horizon: active sessions older than 12h are abandoned
	assert.WithinRange(t, repo.abandonCutoff, before.Add(-12*time.Hour), after.Add(-12*time.Hour))
	// retention: abandoned sessions older than 90 days are purged
	assert.WithinRange(t, repo.deleteCutoff, before.Add(-90*24*time.Hour), after.Add(-90*24*time.Hour))
}

func TestCleanup_PurgeRunsAfterAbandonFailure(t *testing.T) {
	repo := &cleanupRepo{abandonErr: errors.New("db down")}
	job := NewCleanupJob(repo, 12*time.Hour, 90*24*time.Hour, time.Hour)

	job.cleanup()

	require.True(t, repo.deleteCalled)
}

func TestStartStop(t *testing.T) {
	repo := &cleanupRepo{}
	job := NewCleanupJob(repo, 12*time.Hour, 90*24*time.Hour, time.Hour)

	job.Start()
	// Start runs one cleanup immediately
	require.Eventually(t, func() bool { return repo.deleteCalled }, time.Second, 5*time.Millisecond)
	job.Stop()
}
