package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
)

type facultyRepository interface {
	ListByUniversity(ctx context.Context, universityID string) ([]models.Faculty, error)
}

// FacultyService lists faculties for filter menus.
type FacultyService struct {
	repo   facultyRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(repo facultyRepository, cache *CacheService, logger *zap.Logger) *FacultyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, cache: cache, logger: logger}
}

// ListByUniversity returns a university's faculties ordered by name.
func (s *FacultyService) ListByUniversity(ctx context.Context, universityID string) ([]models.Faculty, error) {
	return remember(ctx, s.cache, facultiesCacheKey(universityID), func(ctx context.Context) ([]models.Faculty, error) {
		faculties, err := s.repo.ListByUniversity(ctx, universityID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list faculties")
		}
		return faculties, nil
	})
}
