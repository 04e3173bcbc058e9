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

type universityReader interface {
	List(ctx context.Context, search string) ([]models.University, error)
	GetByShortName(ctx context.Context, shortName string) (*models.University, error)
}

type facultyReader interface {
	ListByUniversity(ctx context.Context, universityID string) ([]models.Faculty, error)
}

type categoryReader interface {
	Categories(ctx context.Context, universityID string) ([]string, error)
}

// UniversityHandler serves university reference data.
type UniversityHandler struct {
	universities universityReader
	faculties    facultyReader
	categories   categoryReader
}

// NewUniversityHandler constructs the handler.
func NewUniversityHandler(universities universityReader, faculties facultyReader, categories categoryReader) *UniversityHandler {
	return &UniversityHandler{universities: universities, faculties: faculties, categories: categories}
}

// List godoc
// @Summary List universities
// @Description List universities ordered by name, optionally filtered by name or short name
// @Tags Universities
// @Produce json
// @Param search query string false "Case-insensitive name filter"
// @Success 200 {object} response.Envelope
// @Router /universities [get]
func (h *UniversityHandler) List(c *gin.Context) {
	universities, err := h.universities.List(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, universities, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get university
// @Description Get a university by its short name
// @Tags Universities
// @Produce json
// @Param name path string true "University short name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{name} [get]
func (h *UniversityHandler) Get(c *gin.Context) {
	university, err := h.universities.GetByShortName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, university, nil, middleware.ExtractMeta(c))
}

// Faculties godoc
// @Summary List faculties
// @Description List the faculties of a university
// @Tags Universities
// @Produce json
// @Param name path string true "University short name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{name}/faculties [get]
func (h *UniversityHandler) Faculties(c *gin.Context) {
	university, err := h.universities.GetByShortName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	faculties, err := h.faculties.ListByUniversity(c.Request.Context(), university.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculties, nil, middleware.ExtractMeta(c))
}

// Categories godoc
// @Summary List subject categories
// @Description List the distinct category codes used by a university's subjects
// @Tags Universities
// @Produce json
// @Param name path string true "University short name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /universities/{name}/categories [get]
func (h *UniversityHandler) Categories(c *gin.Context) {
	university, err := h.universities.GetByShortName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	categories, err := h.categories.Categories(c.Request.Context(), university.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil, middleware.ExtractMeta(c))
}
