package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/service"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
)

type fakeExporter struct {
	file       *service.StatsExport
	err        error
	lastFormat string
}

func (f *fakeExporter) Export(_ context.Context, _ string, format string) (*service.StatsExport, error) {
	f.lastFormat = format
	return f.file, f.err
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
	Meta       map[string]any     `json:"meta"`
}

func decodeEnvelope(t *testing.T, body string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return env
}

func TestUniversityHandlerGetNotFound(t *testing.T) {
	universities, subjects := newFakeCatalog()
	handler := NewUniversityHandler(universities, &fakeFaculties{}, subjects)
	c, w := newTestContext(t, http.MethodGet, "/api/v1/universities/NOPE", "", "")
	c.Params = gin.Params{{Key: "name", Value: "NOPE"}}

	handler.Get(c)

	requireStatus(t, w, http.StatusNotFound)
	env := decodeEnvelope(t, w.Body.String())
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestUniversityHandlerFacultiesAndCategories(t *testing.T) {
	universities, subjects := newFakeCatalog()
	subjects.categories = []string{"IT", "MATH"}
	faculties := &fakeFaculties{faculties: []models.Faculty{{ID: "f1", Name: "School of IT"}}}
	handler := NewUniversityHandler(universities, faculties, subjects)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/universities/taltech/faculties", "", "")
	c.Params = gin.Params{{Key: "name", Value: "taltech"}}
	handler.Faculties(c)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "School of IT")

	c, w = newTestContext(t, http.MethodGet, "/api/v1/universities/taltech/categories", "", "")
	c.Params = gin.Params{{Key: "name", Value: "taltech"}}
	handler.Categories(c)
	requireStatus(t, w, http.StatusOK)
	var categories []string
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w.Body.String()).Data, &categories))
	assert.Equal(t, []string{"IT", "MATH"}, categories)
}

func TestSubjectHandlerListUsesDefaultLimit(t *testing.T) {
	universities, subjects := newFakeCatalog()
	handler := NewSubjectHandler(universities, subjects, &fakeReviews{}, 10)
	c, w := newTestContext(t, http.MethodGet, "/api/v1/universities/TalTech/subjects?sort=bogus&search=alg", "", "")
	c.Params = gin.Params{{Key: "name", Value: "TalTech"}}

	handler.List(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.SubjectFilter{
		UniversityID: "uni-1",
		Search:       "alg",
		SortBy:       models.SubjectSortDefault,
		Page:         1,
		PageSize:     10,
	}, subjects.lastFilter)
	env := decodeEnvelope(t, w.Body.String())
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 10, env.Pagination.Limit)
}

func TestSubjectHandlerReviewsScopedToUniversity(t *testing.T) {
	universities, subjects := newFakeCatalog()
	reviews := &fakeReviews{reviews: []models.AnonymousReview{{ID: "r1", SubjectCode: "ITI0204", OverallRating: 4}}}
	handler := NewSubjectHandler(universities, subjects, reviews, 10)
	c, w := newTestContext(t, http.MethodGet, "/api/v1/universities/taltech/subjects/iti0204/reviews?page=2&limit=5", "", "")
	c.Params = gin.Params{{Key: "name", Value: "taltech"}, {Key: "code", Value: "iti0204"}}

	handler.Reviews(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.ReviewFilter{SubjectCode: "ITI0204", UniversityShortName: "TalTech", Page: 2, PageSize: 5}, reviews.lastFilter)
	assert.NotContains(t, w.Body.String(), "user_id")
}

func TestSubjectHandlerGetUnknownSubject(t *testing.T) {
	universities, subjects := newFakeCatalog()
	handler := NewSubjectHandler(universities, subjects, &fakeReviews{}, 10)
	c, w := newTestContext(t, http.MethodGet, "/api/v1/universities/TalTech/subjects/NOPE", "", "")
	c.Params = gin.Params{{Key: "name", Value: "TalTech"}, {Key: "code", Value: "NOPE"}}

	handler.Get(c)

	requireStatus(t, w, http.StatusNotFound)
}

func TestReviewHandlerStats(t *testing.T) {
	_, subjects := newFakeCatalog()
	stats := service.ComputeStats([]models.ReviewRatings{{OverallRating: 4, DifficultyRating: 2, WorkloadRating: 3, TeachingQualityRating: 5}})
	handler := NewReviewHandler(subjects, &fakeReviews{stats: &stats}, &fakeExporter{})
	c, w := newTestContext(t, http.MethodGet, "/api/v1/subjects/sub-1/stats", "", "")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Stats(c)

	requireStatus(t, w, http.StatusOK)
	var got models.ReviewStats
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w.Body.String()).Data, &got))
	assert.Equal(t, 1, got.TotalReviews)
	assert.Equal(t, 4.0, got.AverageRatings.Overall)
	assert.Equal(t, 1, got.RatingDistribution.Overall[4])
}

func TestReviewHandlerExportStats(t *testing.T) {
	_, subjects := newFakeCatalog()
	exporter := &fakeExporter{file: &service.StatsExport{Filename: "ITI0204-stats.csv", ContentType: "text/csv", Payload: []byte("Dimension,Average\n")}}
	handler := NewReviewHandler(subjects, &fakeReviews{}, exporter)
	c, w := newTestContext(t, http.MethodGet, "/api/v1/subjects/sub-1/stats/export?format=csv", "", "")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.ExportStats(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "csv", exporter.lastFormat)
	assert.Equal(t, `attachment; filename="ITI0204-stats.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Dimension,Average\n", w.Body.String())
}

func TestReviewHandlerExportStatsUnsupportedFormat(t *testing.T) {
	_, subjects := newFakeCatalog()
	exporter := &fakeExporter{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	handler := NewReviewHandler(subjects, &fakeReviews{}, exporter)
	c, w := newTestContext(t, http.MethodGet, "/api/v1/subjects/sub-1/stats/export?format=xls", "", "")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.ExportStats(c)

	requireStatus(t, w, http.StatusBadRequest)
}

func TestReviewHandlerCreate(t *testing.T) {
	_, subjects := newFakeCatalog()
	reviews := &fakeReviews{}
	handler := NewReviewHandler(subjects, reviews, &fakeExporter{})
	payload := `{"overall_rating":5,"difficulty_rating":2,"workload_rating":3,"teaching_quality_rating":4,"content":"ok","user_id":"spoofed"}`
	c, w := newTestContext(t, http.MethodPost, "/api/v1/subjects/sub-1/reviews", payload, "application/json")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	withSession(c, "user-1", false)

	handler.Create(c)

	requireStatus(t, w, http.StatusCreated)
	require.Len(t, reviews.created, 1)
	assert.Equal(t, "user-1", reviews.created[0].UserID)
	assert.Equal(t, "sub-1", reviews.created[0].SubjectID)
	assert.False(t, strings.Contains(w.Body.String(), "user-1"))
}

func TestReviewHandlerCreateErrors(t *testing.T) {
	cases := []struct {
		name      string
		subjectID string
		session   bool
		payload   string
		createErr error
		status    int
	}{
		{name: "no session", subjectID: "sub-1", payload: `{}`, status: http.StatusUnauthorized},
		{name: "malformed body", subjectID: "sub-1", session: true, payload: `{"overall_rating":`, status: http.StatusBadRequest},
		{name: "unknown subject", subjectID: "missing", session: true, payload: `{"overall_rating":5}`, status: http.StatusNotFound},
		{name: "duplicate", subjectID: "sub-1", session: true, payload: `{"overall_rating":5}`, createErr: appErrors.Clone(appErrors.ErrAlreadyReviewed, "duplicate"), status: http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, subjects := newFakeCatalog()
			handler := NewReviewHandler(subjects, &fakeReviews{createErr: tc.createErr}, &fakeExporter{})
			c, w := newTestContext(t, http.MethodPost, "/api/v1/subjects/"+tc.subjectID+"/reviews", tc.payload, "application/json")
			c.Params = gin.Params{{Key: "id", Value: tc.subjectID}}
			if tc.session {
				withSession(c, "user-1", false)
			}

			handler.Create(c)

			requireStatus(t, w, tc.status)
		})
	}
}
