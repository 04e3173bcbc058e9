package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unirate/internal/middleware"
	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/service"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/web"
)

func newTestContext(t *testing.T, method, target string, body string, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	tmpl, err := web.Templates()
	require.NoError(t, err)
	engine.SetHTMLTemplate(tmpl)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.Request = req
	return c, w
}

func withSession(c *gin.Context, userID string, verified bool) {
	claims := &models.SessionClaims{Email: "student@example.edu", VerifiedStudent: verified}
	claims.Subject = userID
	c.Set(middleware.ContextSessionKey, claims)
}

var (
	testUniversity = models.University{ID: "uni-1", Name: "Tallinn University of Technology", ShortName: "TalTech"}
	testSubject    = models.Subject{ID: "sub-1", UniversityID: "uni-1", Name: "Algorithms", Code: "ITI0204"}
)

type fakeUniversities struct {
	list       []models.University
	lastSearch string
	err        error
}

func (f *fakeUniversities) List(_ context.Context, search string) ([]models.University, error) {
	f.lastSearch = search
	return f.list, f.err
}

func (f *fakeUniversities) GetByShortName(_ context.Context, shortName string) (*models.University, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.list {
		if strings.EqualFold(f.list[i].ShortName, shortName) {
			u := f.list[i]
			return &u, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "university not found")
}

type fakeSubjects struct {
	subjects   []models.Subject
	lastFilter models.SubjectFilter
	categories []string
}

func (f *fakeSubjects) List(_ context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	f.lastFilter = filter
	return f.subjects, &models.Pagination{CurrentPage: filter.Page, TotalPages: 1, TotalCount: len(f.subjects), Limit: filter.PageSize}, nil
}

func (f *fakeSubjects) GetByCode(_ context.Context, universityID, code string) (*models.Subject, error) {
	for i := range f.subjects {
		if f.subjects[i].UniversityID == universityID && strings.EqualFold(f.subjects[i].Code, code) {
			s := f.subjects[i]
			return &s, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

func (f *fakeSubjects) GetByID(_ context.Context, id string) (*models.Subject, error) {
	for i := range f.subjects {
		if f.subjects[i].ID == id {
			s := f.subjects[i]
			return &s, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

func (f *fakeSubjects) Categories(context.Context, string) ([]string, error) {
	return f.categories, nil
}

type fakeFaculties struct {
	faculties []models.Faculty
}

func (f *fakeFaculties) ListByUniversity(context.Context, string) ([]models.Faculty, error) {
	return f.faculties, nil
}

type fakeReviews struct {
	reviews    []models.AnonymousReview
	lastFilter models.ReviewFilter
	stats      *models.ReviewStats
	created    []service.CreateReviewRequest
	createErr  error
}

func (f *fakeReviews) ListBySubjectCode(_ context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, *models.Pagination, error) {
	f.lastFilter = filter
	return f.reviews, &models.Pagination{CurrentPage: filter.Page, TotalPages: 1, TotalCount: len(f.reviews), Limit: filter.PageSize}, nil
}

func (f *fakeReviews) Stats(context.Context, string) (*models.ReviewStats, error) {
	if f.stats == nil {
		stats := service.ComputeStats(nil)
		return &stats, nil
	}
	return f.stats, nil
}

func (f *fakeReviews) Create(_ context.Context, req service.CreateReviewRequest) (*models.Review, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &models.Review{ID: "rev-1", SubjectID: req.SubjectID, OverallRating: req.OverallRating}, nil
}

type fakePages struct {
	universities *fakeUniversities
	subjects     *fakeSubjects
	reviewed     bool
	subjectsPage *service.SubjectsPageData
	lastQuery    service.SubjectsPageQuery
	lastPage     int
	err          error
}

func (f *fakePages) SubjectsPage(_ context.Context, q service.SubjectsPageQuery) (*service.SubjectsPageData, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.subjectsPage, nil
}

func (f *fakePages) SubjectPage(ctx context.Context, universityName, subjectCode string, page int) (*service.SubjectPageData, error) {
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	university, subject, err := f.ResolveSubject(ctx, universityName, subjectCode)
	if err != nil {
		return nil, err
	}
	stats := service.ComputeStats(nil)
	return &service.SubjectPageData{
		University: university,
		Subject:    subject,
		Pagination: &models.Pagination{CurrentPage: page, TotalPages: 1, Limit: 10},
		Stats:      &stats,
	}, nil
}

func (f *fakePages) WriteReviewPage(ctx context.Context, universityName, subjectCode, userID string) (*service.WriteReviewPageData, error) {
	university, subject, err := f.ResolveSubject(ctx, universityName, subjectCode)
	if err != nil {
		return &service.WriteReviewPageData{University: university}, err
	}
	return &service.WriteReviewPageData{University: university, Subject: subject, AlreadyReviewed: f.reviewed}, nil
}

func (f *fakePages) ResolveSubject(ctx context.Context, universityName, subjectCode string) (*models.University, *models.Subject, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	university, err := f.universities.GetByShortName(ctx, universityName)
	if err != nil {
		return nil, nil, err
	}
	subject, err := f.subjects.GetByCode(ctx, university.ID, subjectCode)
	if err != nil {
		return university, nil, err
	}
	return university, subject, nil
}

func newFakeCatalog() (*fakeUniversities, *fakeSubjects) {
	return &fakeUniversities{list: []models.University{testUniversity}}, &fakeSubjects{subjects: []models.Subject{testSubject}}
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
