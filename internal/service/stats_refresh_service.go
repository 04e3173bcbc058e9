package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/unirate/pkg/jobs"
)

type statsViewRefresher interface {
	Refresh(ctx context.Context) error
}

// StatsRefreshService keeps the subjects_with_stats view current after new reviews.
type StatsRefreshService struct {
	repo    statsViewRefresher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewStatsRefreshService constructs a StatsRefreshService.
func NewStatsRefreshService(repo statsViewRefresher, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StatsRefreshService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsRefreshService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Handle is the jobs.Handler for the stats queue. A returned error makes the queue retry.
func (s *StatsRefreshService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeRefreshSubjectStats {
		s.logger.Warn("ignoring unsupported job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes subject aggregates and drops cached university totals.
func (s *StatsRefreshService) Refresh(ctx context.Context) error {
	if err := s.repo.Refresh(ctx); err != nil {
		s.metrics.RecordStatsRefresh(false)
		return err
	}
	s.metrics.RecordStatsRefresh(true)
	_ = s.cache.Invalidate(ctx, cachePatternUniversities)
	s.logger.Debug("subject stats refreshed")
	return nil
}
