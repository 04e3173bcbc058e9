package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unirate/internal/middleware"
	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/pkg/response"
)

type subjectReader interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error)
	GetByCode(ctx context.Context, universityID, code string) (*models.Subject, error)
}

type reviewLister interface {
	ListBySubjectCode(ctx context.Context, filter models.ReviewFilter) ([]models.AnonymousReview, *models.Pagination, error)
}

// SubjectHandler serves subjects and their anonymous reviews.
type SubjectHandler struct {
	universities universityReader
	subjects     subjectReader
	reviews      reviewLister
	defaultLimit int
}

// NewSubjectHandler constructs the handler. defaultLimit applies when ?limit is absent.
func NewSubjectHandler(universities universityReader, subjects subjectReader, reviews reviewLister, defaultLimit int) *SubjectHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SubjectHandler{universities: universities, subjects: subjects, reviews: reviews, defaultLimit: defaultLimit}
}

// List godoc
// @Summary List subjects
// @Description List a university's subjects with optional filters and sorting
// @Tags Subjects
// @Produce json
// @Param name path string true "University short name"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param faculty query string false "Faculty ID"
// @Param category query string false "Category code"
// @Param search query string false "Name or code filter"
// @Param sort query string false "default|highest_rating|lowest_rating|most_reviewed"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{name}/subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	university, err := h.universities.GetByShortName(ctx, c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}

	subjects, pagination, err := h.subjects.List(ctx, models.SubjectFilter{
		UniversityID: university.ID,
		FacultyID:    strings.TrimSpace(c.Query("faculty")),
		CategoryCode: strings.TrimSpace(c.Query("category")),
		Search:       c.Query("search"),
		SortBy:       models.ParseSubjectSort(c.Query("sort")),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "limit", h.defaultLimit),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get subject
// @Description Get a subject of a university by code, including its aggregate rating
// @Tags Subjects
// @Produce json
// @Param name path string true "University short name"
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{name}/subjects/{code} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	_, subject, err := h.resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil, middleware.ExtractMeta(c))
}

// Reviews godoc
// @Summary List subject reviews
// @Description List the anonymous reviews of a subject, newest first
// @Tags Reviews
// @Produce json
// @Param name path string true "University short name"
// @Param code path string true "Subject code"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{name}/subjects/{code}/reviews [get]
func (h *SubjectHandler) Reviews(c *gin.Context) {
	university, subject, err := h.resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	reviews, pagination, err := h.reviews.ListBySubjectCode(c.Request.Context(), models.ReviewFilter{
		SubjectCode:         subject.Code,
		UniversityShortName: university.ShortName,
		Page:                queryInt(c, "page", 1),
		PageSize:            queryInt(c, "limit", h.defaultLimit),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, pagination, middleware.ExtractMeta(c))
}

func (h *SubjectHandler) resolve(c *gin.Context) (*models.University, *models.Subject, error) {
	ctx := c.Request.Context()
	university, err := h.universities.GetByShortName(ctx, c.Param("name"))
	if err != nil {
		return nil, nil, err
	}
	subject, err := h.subjects.GetByCode(ctx, university.ID, c.Param("code"))
	if err != nil {
		return nil, nil, err
	}
	return university, subject, nil
}
