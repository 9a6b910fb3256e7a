package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/tracker-go/internal/cache"
	"github.com/fieldtrack/tracker-go/internal/model"
)

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) Aggregate(ctx context.Context, accountID string) (*model.DashboardAggregate, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardAggregate), args.Error(1)
}

func (m *mockStatsRepo) OutcomeCounts(ctx context.Context, accountID string) ([]model.OutcomeCount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OutcomeCount), args.Error(1)
}

func TestStatsService_Dashboard(t *testing.T) {
	repo := new(mockStatsRepo)
	svc := NewStatsService(repo, cache.NewMemory(), 5*time.Minute)

	repo.On("Aggregate", mock.Anything, "acct-1").Return(&model.DashboardAggregate{
		TotalSessions:   3,
		TotalApproaches: 17,
		TotalSeconds:    3 * 3600,
	}, nil).Once()
	repo.On("OutcomeCounts", mock.Anything, "acct-1").Return([]model.OutcomeCount{
		{Outcome: model.OutcomeNumber, Count: 4},
		{Outcome: model.OutcomeBlowout, Count: 2},
	}, nil).Once()

	stats, err := svc.Dashboard(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 17, stats.TotalApproaches)
	assert.InDelta(t, 5.7, stats.PerHour, 0.001)

	// every outcome bucket is present, zero-filled when unseen
	assert.Len(t, stats.Outcomes, len(model.Outcomes))
	assert.Equal(t, 4, stats.Outcomes[model.OutcomeNumber])
	assert.Equal(t, 0, stats.Outcomes[model.OutcomeInstadate])
}

func TestStatsService_Dashboard_CachedWithinTTL(t *testing.T) {
	repo := new(mockStatsRepo)
	svc := NewStatsService(repo, cache.NewMemory(), 5*time.Minute)

	repo.On("Aggregate", mock.Anything, "acct-1").Return(&model.DashboardAggregate{
		TotalSessions: 1,
	}, nil).Once()
	repo.On("OutcomeCounts", mock.Anything, "acct-1").Return([]model.OutcomeCount{}, nil).Once()

	first, err := svc.Dashboard(context.Background(), "acct-1")
	require.NoError(t, err)

	// second call within the TTL is served from cache
	second, err := svc.Dashboard(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "Aggregate", 1)
}

func TestStatsService_Dashboard_ZeroDuration(t *testing.T) {
	repo := new(mockStatsRepo)
	svc := NewStatsService(repo, cache.NewMemory(), 5*time.Minute)

	repo.On("Aggregate", mock.Anything, "acct-1").Return(&model.DashboardAggregate{}, nil).Once()
	repo.On("OutcomeCounts", mock.Anything, "acct-1").Return([]model.OutcomeCount{}, nil).Once()

	stats, err := svc.Dashboard(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Zero(t, stats.PerHour)
}
