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
	"github.com/noah-isme/unirate/pkg/pagination"
)

const subjectColumns = `s.id, s.university_id, s.faculty_id, s.name, s.code, s.description, s.credits, s.category_code,
	st.average_rating, COALESCE(st.review_count, 0) AS review_count, s.created_at, s.updated_at,
	f.id AS "faculty.id", f.name AS "faculty.name", f.short_name AS "faculty.short_name",
	u.id AS "university.id", u.name AS "university.name", u.short_name AS "university.short_name"`

// subjectSource reads the subjects table so rows inserted since the last view refresh stay
// visible; their stats are NULL/0 until the next refresh.
const subjectSource = ` FROM subjects s LEFT JOIN subjects_with_stats st ON st.id = s.id`

const subjectJoins = ` JOIN faculties f ON f.id = s.faculty_id JOIN universities u ON u.id = s.university_id`

// SubjectRepository reads subjects with the aggregates of the subjects_with_stats view.
type SubjectRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB, metrics QueryObserver) *SubjectRepository {
	return &SubjectRepository{db: db, metrics: observerOrNop(metrics)}
}

// subjectOrder maps a sort option to its ORDER BY clause. Rating sorts need a
// matching "st.average_rating IS NOT NULL" condition.
func subjectOrder(sort models.SubjectSort) string {
	switch sort {
	case models.SubjectSortHighestRating:
		return "st.average_rating DESC, s.name ASC"
	case models.SubjectSortLowestRating:
		return "st.average_rating ASC, s.name ASC"
	case models.SubjectSortMostReviewed:
		return "COALESCE(st.review_count, 0) DESC, s.name ASC"
	default:
		return "s.name ASC"
	}
}

// List returns one page of a university's subjects matching filter, and the total match count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	conditions := []string{"s.university_id = $1"}
	args := []interface{}{filter.UniversityID}

	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("s.faculty_id = $%d", len(args)))
	}
	if filter.CategoryCode != "" {
		args = append(args, filter.CategoryCode)
		conditions = append(conditions, fmt.Sprintf("s.category_code = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		conditions = append(conditions, fmt.Sprintf("(s.name ILIKE $%d OR s.code ILIKE $%d)", len(args), len(args)))
	}
	sort := models.ParseSubjectSort(string(filter.SortBy))
	if sort == models.SubjectSortHighestRating || sort == models.SubjectSortLowestRating {
		conditions = append(conditions, "st.average_rating IS NOT NULL")
	}

	where := " WHERE " + strings.Join(conditions, " AND ")
	page, size := pagination.Normalize(filter.Page, filter.PageSize, 10)

	query := fmt.Sprintf("SELECT %s%s%s%s ORDER BY %s LIMIT %d OFFSET %d",
		subjectColumns, subjectSource, subjectJoins, where, subjectOrder(sort), size, pagination.Offset(page, size))

	start := time.Now()
	subjects := make([]models.Subject, 0)
	err := r.db.SelectContext(ctx, &subjects, query, args...)
	r.metrics.ObserveDBQuery("subjects.list", time.Since(start))
	if isInvalidInput(err) {
		// a malformed faculty id matches nothing
		return []models.Subject{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	start = time.Now()
	var total int
	err = r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+subjectSource+where, args...)
	r.metrics.ObserveDBQuery("subjects.count", time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// FindByCode returns a university's subject by code, preferring an exact match over a
// case-insensitive one.
func (r *SubjectRepository) FindByCode(ctx context.Context, universityID, code string) (*models.Subject, error) {
	exact := fmt.Sprintf("SELECT %s%s%s WHERE s.university_id = $1 AND s.code = $2 LIMIT 1", subjectColumns, subjectSource, subjectJoins)
	subject, err := r.getOne(ctx, "subjects.find_by_code", exact, universityID, code)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find subject by code: %w", err)
	}

	folded := fmt.Sprintf("SELECT %s%s%s WHERE s.university_id = $1 AND LOWER(s.code) = LOWER($2) ORDER BY s.code LIMIT 1", subjectColumns, subjectSource, subjectJoins)
	subject, err = r.getOne(ctx, "subjects.find_by_code_folded", folded, universityID, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by code: %w", err)
	}
	return subject, nil
}

// FindByID returns a subject by identifier.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s%s%s WHERE s.id = $1", subjectColumns, subjectSource, subjectJoins)
	subject, err := r.getOne(ctx, "subjects.find_by_id", query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by id: %w", err)
	}
	return subject, nil
}

// Categories returns the distinct non-empty category codes of a university's subjects, sorted.
func (r *SubjectRepository) Categories(ctx context.Context, universityID string) ([]string, error) {
	const query = `SELECT DISTINCT category_code FROM subjects WHERE university_id = $1 AND category_code IS NOT NULL AND category_code <> '' ORDER BY category_code`
	start := time.Now()
	categories := make([]string, 0)
	err := r.db.SelectContext(ctx, &categories, query, universityID)
	r.metrics.ObserveDBQuery("subjects.categories", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list subject categories: %w", err)
	}
	return categories, nil
}

func (r *SubjectRepository) getOne(ctx context.Context, label, query string, args ...interface{}) (*models.Subject, error) {
	start := time.Now()
	var subject models.Subject
	err := r.db.GetContext(ctx, &subject, query, args...)
	r.metrics.ObserveDBQuery(label, time.Since(start))
	if isInvalidInput(err) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}
