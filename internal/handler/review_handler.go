package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unirate/internal/middleware"
	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/service"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/response"
)

type subjectByID interface {
	GetByID(ctx context.Context, id string) (*models.Subject, error)
}

type reviewWriter interface {
	Stats(ctx context.Context, subjectID string) (*models.ReviewStats, error)
	Create(ctx context.Context, req service.CreateReviewRequest) (*models.Review, error)
}

type statsExporter interface {
	Export(ctx context.Context, subjectID, format string) (*service.StatsExport, error)
}

// ReviewHandler accepts reviews and serves per-subject statistics.
type ReviewHandler struct {
	subjects subjectByID
	reviews  reviewWriter
	exporter statsExporter
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(subjects subjectByID, reviews reviewWriter, exporter statsExporter) *ReviewHandler {
	return &ReviewHandler{subjects: subjects, reviews: reviews, exporter: exporter}
}

// Stats godoc
// @Summary Subject review statistics
// @Description Averages and 1-5 distributions for each rating dimension
// @Tags Reviews
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/stats [get]
func (h *ReviewHandler) Stats(c *gin.Context) {
	subject, err := h.subjects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.reviews.Stats(c.Request.Context(), subject.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// ExportStats godoc
// @Summary Export subject statistics
// @Description Download the statistics table as CSV or PDF
// @Tags Reviews
// @Produce octet-stream
// @Param id path string true "Subject ID"
// @Param format query string false "csv|pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/stats/export [get]
func (h *ReviewHandler) ExportStats(c *gin.Context) {
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Create godoc
// @Summary Submit a review
// @Description Submit one review per user and subject
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects/{id}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	subject, err := h.subjects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	req.SubjectID = subject.ID
	req.UserID = session.UserID()
	req.IsVerifiedStudent = session.VerifiedStudent

	review, err := h.reviews.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}
