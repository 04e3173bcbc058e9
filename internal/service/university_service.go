package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
)

type universityRepository interface {
	List(ctx context.Context, search string) ([]models.University, error)
	FindByShortName(ctx context.Context, shortName string) (*models.University, error)
}

// UniversityService exposes university lookups backed by an optional cache.
type UniversityService struct {
	repo   universityRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewUniversityService constructs a UniversityService.
func NewUniversityService(repo universityRepository, cache *CacheService, logger *zap.Logger) *UniversityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UniversityService{repo: repo, cache: cache, logger: logger}
}

// List returns universities ordered by name. Only the unfiltered list is cached.
func (s *UniversityService) List(ctx context.Context, search string) ([]models.University, error) {
	search = strings.TrimSpace(search)
	load := func(ctx context.Context) ([]models.University, error) {
		universities, err := s.repo.List(ctx, search)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list universities")
		}
		return universities, nil
	}
	if search != "" {
		return load(ctx)
	}
	return remember(ctx, s.cache, cacheKeyUniversities, load)
}

// GetByShortName resolves a university from its URL name, ignoring case.
func (s *UniversityService) GetByShortName(ctx context.Context, shortName string) (*models.University, error) {
	shortName = strings.TrimSpace(shortName)
	if shortName == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "university not found")
	}
	return remember(ctx, s.cache, universityCacheKey(shortName), func(ctx context.Context) (*models.University, error) {
		university, err := s.repo.FindByShortName(ctx, shortName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "university not found")
			}
			return nil, appErrors.Internal(err, "failed to load university")
		}
		return university, nil
	})
}
