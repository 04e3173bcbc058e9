package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unirate/internal/models"
)

// FacultyRepository handles read access to faculties.
type FacultyRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewFacultyRepository creates a new repository instance.
func NewFacultyRepository(db *sqlx.DB, metrics QueryObserver) *FacultyRepository {
	return &FacultyRepository{db: db, metrics: observerOrNop(metrics)}
}

// ListByUniversity returns a university's faculties ordered by name.
func (r *FacultyRepository) ListByUniversity(ctx context.Context, universityID string) ([]models.Faculty, error) {
	const query = `SELECT id, university_id, name, COALESCE(short_name, '') AS short_name, created_at, updated_at FROM faculties WHERE university_id = $1 ORDER BY name ASC`
	start := time.Now()
	faculties := make([]models.Faculty, 0)
	err := r.db.SelectContext(ctx, &faculties, query, universityID)
	r.metrics.ObserveDBQuery("faculties.list", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list faculties: %w", err)
	}
	return faculties, nil
}
