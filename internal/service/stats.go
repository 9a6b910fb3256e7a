package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldtrack/tracker-go/internal/cache"
	"github.com/fieldtrack/tracker-go/internal/model"
	redisclient "github.com/fieldtrack/tracker-go/internal/redis"
	"github.com/fieldtrack/tracker-go/internal/repository"
)

// StatsService serves the dashboard rollup through an injected TTL cache.
type StatsService struct {
	statsRepo repository.StatsRepository
	cache     cache.Cache
	ttl       time.Duration
}

func NewStatsService(statsRepo repository.StatsRepository, c cache.Cache, ttl time.Duration) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		cache:     c,
		ttl:       ttl,
	}
}

// Dashboard returns aggregate statistics for the account, recomputing at
// most once per TTL. A cache read failure falls through to the database.
func (s *StatsService) Dashboard(ctx context.Context, accountID string) (*model.DashboardStats, error) {
	key := redisclient.StatsKey(accountID)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("stats cache read failed")
	} else if ok {
		var stats model.DashboardStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
		log.Warn().Err(err).Msg("discarding corrupt stats cache entry")
	}

	stats, err := s.compute(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			log.Warn().Err(err).Msg("stats cache write failed")
		}
	}

	return stats, nil
}

func (s *StatsService) compute(ctx context.Context, accountID string) (*model.DashboardStats, error) {
	agg, err := s.statsRepo.Aggregate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	counts, err := s.statsRepo.OutcomeCounts(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("outcome counts: %w", err)
	}

	outcomes := make(map[model.Outcome]int, len(model.Outcomes))
	for _, o := range model.Outcomes {
		outcomes[o] = 0
	}
	for _, c := range counts {
		outcomes[c.Outcome] = c.Count
	}

	var perHour float64
	if agg.TotalSeconds > 0 {
		perHour = float64(agg.TotalApproaches) / (float64(agg.TotalSeconds) / 3600)
		perHour = math.Round(perHour*10) / 10
	}

	return &model.DashboardStats{
		TotalSessions:   agg.TotalSessions,
		TotalApproaches: agg.TotalApproaches,
		TotalSeconds:    agg.TotalSeconds,
		PerHour:         perHour,
		Outcomes:        outcomes,
	}, nil
}
