package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/pkg/pagination"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var (
	// ErrDuplicateReview is returned when the user already reviewed the subject.
	ErrDuplicateReview = errors.New("review already exists for user and subject")
	// ErrUnknownSubject is returned when a review references a missing subject.
	ErrUnknownSubject = errors.New("review references unknown subject")
)

const anonymousReviewColumns = `id, content, difficulty_rating, workload_rating, teaching_quality_rating, overall_rating, is_verified_student, created_at, updated_at,
	subject_code, subject_name, subject_description, subject_credits, university_name, university_short_name, faculty_name, faculty_short_name`

// ReviewRepository persists reviews and reads their anonymous projection.
type ReviewRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewReviewRepository creates a new repository instance.
func NewReviewRepository(db *sqlx.DB, metrics QueryObserver) *ReviewRepository {
	return &ReviewRepository{db: db, metrics: observerOrNop(metrics)}
}

// ListAnonymous returns one page of a subject's reviews, newest first, and the total count.
func (r *ReviewRepository) ListAnonymous(ctx context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, int, error) {
	where := " WHERE subject_code = $1"
	args := []interface{}{filter.SubjectCode}
	if filter.UniversityShortName != "" {
		args = append(args, filter.UniversityShortName)
		where += fmt.Sprintf(" AND LOWER(university_short_name) = LOWER($%d)", len(args))
	}

	page, size := pagination.Normalize(filter.Page, filter.PageSize, 10)
	query := fmt.Sprintf("SELECT %s FROM anonymous_reviews%s ORDER BY created_at DESC, id LIMIT %d OFFSET %d",
		anonymousReviewColumns, where, size, pagination.Offset(page, size))

	start := time.Now()
	reviews := make([]models.AnonymousReview, 0)
	err := r.db.SelectContext(ctx, &reviews, query, args...)
	r.metrics.ObserveDBQuery("reviews.list", time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	start = time.Now()
	var total int
	err = r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM anonymous_reviews"+where, args...)
	r.metrics.ObserveDBQuery("reviews.count", time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	return reviews, total, nil
}

// RatingsBySubject loads the rating columns of every review of a subject.
func (r *ReviewRepository) RatingsBySubject(ctx context.Context, subjectID string) ([]models.ReviewRatings, error) {
	const query = `SELECT difficulty_rating, workload_rating, teaching_quality_rating, overall_rating, is_verified_student FROM reviews WHERE subject_id = $1`
	start := time.Now()
	ratings := make([]models.ReviewRatings, 0)
	err := r.db.SelectContext(ctx, &ratings, query, subjectID)
	r.metrics.ObserveDBQuery("reviews.ratings", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("load review ratings: %w", err)
	}
	return ratings, nil
}

// Exists reports whether userID already reviewed subjectID.
func (r *ReviewRepository) Exists(ctx context.Context, userID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM reviews WHERE user_id = $1 AND subject_id = $2 LIMIT 1`
	start := time.Now()
	var exists int
	err := r.db.GetContext(ctx, &exists, query, userID, subjectID)
	r.metrics.ObserveDBQuery("reviews.exists", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check existing review: %w", err)
	}
	return true, nil
}

// Create inserts review. The (user_id, subject_id) unique constraint decides duplicates, so
// concurrent submissions from one user yield exactly one row and ErrDuplicateReview for the rest.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	const query = `INSERT INTO reviews (id, user_id, subject_id, content, difficulty_rating, workload_rating, teaching_quality_rating, overall_rating, is_verified_student, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, subject_id) DO NOTHING
		RETURNING id`

	start := time.Now()
	var id string
	err := r.db.QueryRowxContext(ctx, query,
		review.ID, review.UserID, review.SubjectID, review.Content,
		review.DifficultyRating, review.WorkloadRating, review.TeachingQualityRating, review.OverallRating,
		review.IsVerifiedStudent, review.CreatedAt, review.UpdatedAt,
	).Scan(&id)
	r.metrics.ObserveDBQuery("reviews.create", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDuplicateReview
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case pqUniqueViolation:
				return ErrDuplicateReview
			case pqForeignKeyViolation:
				return ErrUnknownSubject
			}
		}
		return fmt.Errorf("create review: %w", err)
	}
	review.ID = id
	return nil
}
