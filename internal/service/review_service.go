package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/repository"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/jobs"
	"github.com/noah-isme/unirate/pkg/pagination"
)

// JobTypeRefreshSubjectStats asks the stats queue to refresh subject aggregates.
const JobTypeRefreshSubjectStats = "refresh_subject_stats"

// MaxReviewContentLength bounds the free-text part of a review, in characters.
const MaxReviewContentLength = 5000

type reviewRepository interface {
	ListAnonymous(ctx context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, int, error)
	RatingsBySubject(ctx context.Context, subjectID string) ([]models.ReviewRatings, error)
	Exists(ctx context.Context, userID, subjectID string) (bool, error)
	Create(ctx context.Context, review *models.Review) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CreateReviewRequest is a review submission. SubjectID, UserID and IsVerifiedStudent
// come from the route and the session, never from the request body.
type CreateReviewRequest struct {
	SubjectID             string `json:"-" form:"-" validate:"required"`
	UserID                string `json:"-" form:"-" validate:"required"`
	IsVerifiedStudent     bool   `json:"-" form:"-"`
	DifficultyRating      int    `json:"difficulty_rating" form:"difficulty_rating" validate:"required,min=1,max=5"`
	WorkloadRating        int    `json:"workload_rating" form:"workload_rating" validate:"required,min=1,max=5"`
	TeachingQualityRating int    `json:"teaching_quality_rating" form:"teaching_quality_rating" validate:"required,min=1,max=5"`
	OverallRating         int    `json:"overall_rating" form:"overall_rating" validate:"required,min=1,max=5"`
	Content               string `json:"content" form:"content" validate:"max=5000"`
}

// ReviewService handles review reads, statistics and submissions.
type ReviewService struct {
	repo            reviewRepository
	queue           jobEnqueuer
	cache           *CacheService
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	defaultPageSize int
}

// ReviewServiceConfig carries optional collaborators of ReviewService.
type ReviewServiceConfig struct {
	Queue           jobEnqueuer
	Cache           *CacheService
	Metrics         *MetricsService
	Validator       *validator.Validate
	Logger          *zap.Logger
	DefaultPageSize int
}

// NewReviewService constructs a ReviewService.
func NewReviewService(repo reviewRepository, cfg ReviewServiceConfig) *ReviewService {
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &ReviewService{
		repo:            repo,
		queue:           cfg.Queue,
		cache:           cfg.Cache,
		metrics:         cfg.Metrics,
		validator:       cfg.Validator,
		logger:          cfg.Logger,
		defaultPageSize: cfg.DefaultPageSize,
	}
}

// ListBySubjectCode returns a page of anonymous reviews for a subject, newest first.
func (s *ReviewService) ListBySubjectCode(ctx context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, *models.Pagination, error) {
	filter.Page, filter.PageSize = pagination.Normalize(filter.Page, filter.PageSize, s.defaultPageSize)
	reviews, total, err := s.repo.ListAnonymous(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list reviews")
	}
	page := pagination.New(filter.Page, filter.PageSize, total)
	return reviews, &page, nil
}

// Stats aggregates every review of a subject. Results are never cached.
func (s *ReviewService) Stats(ctx context.Context, subjectID string) (*models.ReviewStats, error) {
	ratings, err := s.repo.RatingsBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load review statistics")
	}
	stats := ComputeStats(ratings)
	return &stats, nil
}

// HasReviewed reports whether userID already submitted a review for subjectID.
func (s *ReviewService) HasReviewed(ctx context.Context, userID, subjectID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	exists, err := s.repo.Exists(ctx, userID, subjectID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to check existing review")
	}
	return exists, nil
}

// Create stores a review. A second review by the same user for the same subject
// yields ErrAlreadyReviewed, also under concurrent submissions.
func (s *ReviewService) Create(ctx context.Context, req CreateReviewRequest) (*models.Review, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordReviewSubmission("invalid")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	review := &models.Review{
		UserID:                req.UserID,
		SubjectID:             req.SubjectID,
		Content:               req.Content,
		DifficultyRating:      req.DifficultyRating,
		WorkloadRating:        req.WorkloadRating,
		TeachingQualityRating: req.TeachingQualityRating,
		OverallRating:         req.OverallRating,
		IsVerifiedStudent:     req.IsVerifiedStudent,
		CreatedAt:             time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateReview):
			s.metrics.RecordReviewSubmission("duplicate")
			return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "")
		case errors.Is(err, repository.ErrUnknownSubject):
			s.metrics.RecordReviewSubmission("invalid")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		default:
			s.metrics.RecordReviewSubmission("error")
			return nil, appErrors.Internal(err, "failed to create review")
		}
	}
	s.metrics.RecordReviewSubmission("created")

	s.logger.Info("review created", zap.String("review_id", review.ID), zap.String("subject_id", review.SubjectID))
	s.afterCreate(ctx, review)
	return review, nil
}

// afterCreate schedules the aggregate refresh and drops cached review totals. Failures
// here never undo the stored review.
func (s *ReviewService) afterCreate(ctx context.Context, review *models.Review) {
	if s.queue != nil {
		job := jobs.Job{Type: JobTypeRefreshSubjectStats, Payload: review.SubjectID}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue stats refresh", zap.String("subject_id", review.SubjectID), zap.Error(err))
		}
	}
	_ = s.cache.Invalidate(ctx, cachePatternUniversities)
}

// ComputeStats folds review ratings into totals, per-dimension means and 1..5 histograms.
// An empty input yields zero values with every histogram bucket present.
func ComputeStats(ratings []models.ReviewRatings) models.ReviewStats {
	stats := models.ReviewStats{
		RatingDistribution: models.RatingDistributions{
			Overall:         newDistribution(),
			Difficulty:      newDistribution(),
			Workload:        newDistribution(),
			TeachingQuality: newDistribution(),
		},
	}
	if len(ratings) == 0 {
		return stats
	}

	var overall, difficulty, workload, teaching int
	for _, r := range ratings {
		overall += r.OverallRating
		difficulty += r.DifficultyRating
		workload += r.WorkloadRating
		teaching += r.TeachingQualityRating

		stats.RatingDistribution.Overall.Add(r.OverallRating)
		stats.RatingDistribution.Difficulty.Add(r.DifficultyRating)
		stats.RatingDistribution.Workload.Add(r.WorkloadRating)
		stats.RatingDistribution.TeachingQuality.Add(r.TeachingQualityRating)

		if r.IsVerifiedStudent {
			stats.VerifiedCount++
		}
	}

	total := len(ratings)
	n := float64(total)
	stats.TotalReviews = total
	stats.AverageRatings = models.RatingAverages{
		Overall:         float64(overall) / n,
		Difficulty:      float64(difficulty) / n,
		Workload:        float64(workload) / n,
		TeachingQuality: float64(teaching) / n,
	}
	stats.VerifiedPercentage = float64(stats.VerifiedCount) / n * 100
	return stats
}

func newDistribution() models.Distribution {
	d := make(models.Distribution, models.MaxRating)
	for v := models.MinRating; v <= models.MaxRating; v++ {
		d[v] = 0
	}
	return d
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return appErrors.ErrValidation.Message
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Content":
		return fmt.Sprintf("review text must be at most %d characters", MaxReviewContentLength)
	case "SubjectID":
		return "subject is required"
	case "UserID":
		return "you must be logged in to submit a review"
	default:
		return "all ratings must be between 1 and 5"
	}
}
