package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/pagination"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByCode(ctx context.Context, universityID, code string) (*models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Categories(ctx context.Context, universityID string) ([]string, error)
}

// SubjectService lists and resolves subjects.
type SubjectService struct {
	repo            subjectRepository
	cache           *CacheService
	logger          *zap.Logger
	defaultPageSize int
}

// NewSubjectService constructs a SubjectService. defaultPageSize applies when a filter carries none.
func NewSubjectService(repo subjectRepository, cache *CacheService, logger *zap.Logger, defaultPageSize int) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPageSize <= 0 {
		defaultPageSize = 12
	}
	return &SubjectService{repo: repo, cache: cache, logger: logger, defaultPageSize: defaultPageSize}
}

// List returns one page of subjects matching filter plus pagination data.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	filter.Page, filter.PageSize = pagination.Normalize(filter.Page, filter.PageSize, s.defaultPageSize)
	filter.SortBy = models.ParseSubjectSort(string(filter.SortBy))
	filter.Search = strings.TrimSpace(filter.Search)

	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list subjects")
	}
	page := pagination.New(filter.Page, filter.PageSize, total)
	return subjects, &page, nil
}

// GetByCode resolves a subject within a university by code.
func (s *SubjectService) GetByCode(ctx context.Context, universityID, code string) (*models.Subject, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	subject, err := s.repo.FindByCode(ctx, universityID, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

// GetByID resolves a subject by identifier.
func (s *SubjectService) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

// Categories returns the category codes used by a university's subjects.
func (s *SubjectService) Categories(ctx context.Context, universityID string) ([]string, error) {
	return remember(ctx, s.cache, categoriesCacheKey(universityID), func(ctx context.Context) ([]string, error) {
		categories, err := s.repo.Categories(ctx, universityID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list categories")
		}
		return categories, nil
	})
}
