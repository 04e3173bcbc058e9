package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unirate/internal/models"
)

// UniversityRepository handles read access to universities.
type UniversityRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewUniversityRepository creates a new repository instance.
func NewUniversityRepository(db *sqlx.DB, metrics QueryObserver) *UniversityRepository {
	return &UniversityRepository{db: db, metrics: observerOrNop(metrics)}
}

// List returns universities ordered by name with their review totals. A non-empty search
// matches name or short name as a case-insensitive substring.
func (r *UniversityRepository) List(ctx context.Context, search string) ([]models.University, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT u.id, u.name, u.short_name, u.created_at, u.updated_at, COALESCE(SUM(s.review_count), 0)::INTEGER AS review_count
		FROM universities u
		LEFT JOIN subjects_with_stats s ON s.university_id = u.id`)
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, containsPattern(search))
		builder.WriteString(fmt.Sprintf(" WHERE (u.name ILIKE $%d OR u.short_name ILIKE $%d)", len(args), len(args)))
	}
	builder.WriteString(" GROUP BY u.id ORDER BY u.name ASC")

	start := time.Now()
	universities := make([]models.University, 0)
	err := r.db.SelectContext(ctx, &universities, builder.String(), args...)
	r.metrics.ObserveDBQuery("universities.list", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	return universities, nil
}

// FindByShortName returns a university by short name, ignoring case.
func (r *UniversityRepository) FindByShortName(ctx context.Context, shortName string) (*models.University, error) {
	const query = `SELECT id, name, short_name, created_at, updated_at FROM universities WHERE LOWER(short_name) = LOWER($1) LIMIT 1`
	start := time.Now()
	var university models.University
	err := r.db.GetContext(ctx, &university, query, shortName)
	r.metrics.ObserveDBQuery("universities.find_by_short_name", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find university by short name: %w", err)
	}
	return &university, nil
}
