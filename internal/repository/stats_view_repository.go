package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// StatsViewRepository maintains the subjects_with_stats materialized view.
type StatsViewRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewStatsViewRepository creates a new repository instance.
func NewStatsViewRepository(db *sqlx.DB, metrics QueryObserver) *StatsViewRepository {
	return &StatsViewRepository{db: db, metrics: observerOrNop(metrics)}
}

// Refresh recomputes subject averages and review counts without blocking readers.
func (r *StatsViewRepository) Refresh(ctx context.Context) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY subjects_with_stats`)
	r.metrics.ObserveDBQuery("subjects_with_stats.refresh", time.Since(start))
	if err != nil {
		return fmt.Errorf("refresh subjects_with_stats: %w", err)
	}
	return nil
}
