package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/unirate/internal/models"
)

type universityLookup interface {
	GetByShortName(ctx context.Context, shortName string) (*models.University, error)
}

type subjectCatalog interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error)
	GetByCode(ctx context.Context, universityID, code string) (*models.Subject, error)
	Categories(ctx context.Context, universityID string) ([]string, error)
}

type facultyLister interface {
	ListByUniversity(ctx context.Context, universityID string) ([]models.Faculty, error)
}

type reviewReader interface {
	ListBySubjectCode(ctx context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, *models.Pagination, error)
	Stats(ctx context.Context, subjectID string) (*models.ReviewStats, error)
	HasReviewed(ctx context.Context, userID, subjectID string) (bool, error)
}

// SubjectsPageQuery carries the query string of a university's subject list page.
type SubjectsPageQuery struct {
	UniversityName string
	FacultyID      string
	CategoryCode   string
	Search         string
	SortBy         models.SubjectSort
	Page           int
}

// SubjectsPageData is everything the subject list page renders.
type SubjectsPageData struct {
	University *models.University
	Subjects   []models.Subject
	Pagination *models.Pagination
	Faculties  []models.Faculty
	Categories []string
	Filter     models.SubjectFilter
}

// SubjectPageData is everything the subject detail page renders.
type SubjectPageData struct {
	University *models.University
	Subject    *models.Subject
	Reviews    []models.AnonymousReview
	Pagination *models.Pagination
	Stats      *models.ReviewStats
}

// WriteReviewPageData backs the review form.
type WriteReviewPageData struct {
	University      *models.University
	Subject         *models.Subject
	AlreadyReviewed bool
}

// PageConfig sets page sizes of the HTML pages.
type PageConfig struct {
	SubjectsPerPage int
	ReviewsPerPage  int
}

// PageService composes the data of each HTML page, fetching independent parts in parallel.
type PageService struct {
	universities universityLookup
	subjects     subjectCatalog
	faculties    facultyLister
	reviews      reviewReader
	cfg          PageConfig
	logger       *zap.Logger
}

// NewPageService constructs a PageService.
func NewPageService(universities universityLookup, subjects subjectCatalog, faculties facultyLister, reviews reviewReader, cfg PageConfig, logger *zap.Logger) *PageService {
	if cfg.SubjectsPerPage <= 0 {
		cfg.SubjectsPerPage = 12
	}
	if cfg.ReviewsPerPage <= 0 {
		cfg.ReviewsPerPage = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageService{universities: universities, subjects: subjects, faculties: faculties, reviews: reviews, cfg: cfg, logger: logger}
}

// SubjectsPage loads a university and then, concurrently, its filtered subjects, faculties and categories.
func (s *PageService) SubjectsPage(ctx context.Context, q SubjectsPageQuery) (*SubjectsPageData, error) {
	university, err := s.universities.GetByShortName(ctx, q.UniversityName)
	if err != nil {
		return nil, err
	}

	data := &SubjectsPageData{
		University: university,
		Filter: models.SubjectFilter{
			UniversityID: university.ID,
			FacultyID:    q.FacultyID,
			CategoryCode: q.CategoryCode,
			Search:       q.Search,
			SortBy:       models.ParseSubjectSort(string(q.SortBy)),
			Page:         q.Page,
			PageSize:     s.cfg.SubjectsPerPage,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subjects, page, err := s.subjects.List(gctx, data.Filter)
		if err != nil {
			return err
		}
		data.Subjects, data.Pagination = subjects, page
		return nil
	})
	g.Go(func() error {
		faculties, err := s.faculties.ListByUniversity(gctx, university.ID)
		if err != nil {
			return err
		}
		data.Faculties = faculties
		return nil
	})
	g.Go(func() error {
		categories, err := s.subjects.Categories(gctx, university.ID)
		if err != nil {
			return err
		}
		data.Categories = categories
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// SubjectPage loads a subject and then, concurrently, one page of its reviews and its statistics.
func (s *PageService) SubjectPage(ctx context.Context, universityName, subjectCode string, page int) (*SubjectPageData, error) {
	university, subject, err := s.ResolveSubject(ctx, universityName, subjectCode)
	if err != nil {
		return nil, err
	}

	data := &SubjectPageData{University: university, Subject: subject}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, pagination, err := s.reviews.ListBySubjectCode(gctx, models.ReviewFilter{
			SubjectCode:         subject.Code,
			UniversityShortName: university.ShortName,
			Page:                page,
			PageSize:            s.cfg.ReviewsPerPage,
		})
		if err != nil {
			return err
		}
		data.Reviews, data.Pagination = reviews, pagination
		return nil
	})
	g.Go(func() error {
		stats, err := s.reviews.Stats(gctx, subject.ID)
		if err != nil {
			return err
		}
		data.Stats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteReviewPage loads the subject being reviewed and whether userID already reviewed it.
// When only the subject is missing, the returned data still carries the university.
func (s *PageService) WriteReviewPage(ctx context.Context, universityName, subjectCode, userID string) (*WriteReviewPageData, error) {
	university, subject, err := s.ResolveSubject(ctx, universityName, subjectCode)
	if err != nil {
		return &WriteReviewPageData{University: university}, err
	}
	reviewed, err := s.reviews.HasReviewed(ctx, userID, subject.ID)
	if err != nil {
		return nil, err
	}
	return &WriteReviewPageData{University: university, Subject: subject, AlreadyReviewed: reviewed}, nil
}

// ResolveSubject returns the university and subject addressed by a page URL.
// The university is returned even when the subject lookup fails.
func (s *PageService) ResolveSubject(ctx context.Context, universityName, subjectCode string) (*models.University, *models.Subject, error) {
	university, err := s.universities.GetByShortName(ctx, universityName)
	if err != nil {
		return nil, nil, err
	}
	subject, err := s.subjects.GetByCode(ctx, university.ID, subjectCode)
	if err != nil {
		return university, nil, err
	}
	return university, subject, nil
}
