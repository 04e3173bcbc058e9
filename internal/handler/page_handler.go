package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/middleware"
	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/service"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/logger"
)

type pageComposer interface {
	SubjectsPage(ctx context.Context, q service.SubjectsPageQuery) (*service.SubjectsPageData, error)
	SubjectPage(ctx context.Context, universityName, subjectCode string, page int) (*service.SubjectPageData, error)
	WriteReviewPage(ctx context.Context, universityName, subjectCode, userID string) (*service.WriteReviewPageData, error)
	ResolveSubject(ctx context.Context, universityName, subjectCode string) (*models.University, *models.Subject, error)
}

type universityLister interface {
	List(ctx context.Context, search string) ([]models.University, error)
}

type reviewCreator interface {
	Create(ctx context.Context, req service.CreateReviewRequest) (*models.Review, error)
}

type ratingField struct {
	Name  string
	Label string
	Value int
}

// PageHandler serves the server-rendered page tree.
type PageHandler struct {
	pages        pageComposer
	universities universityLister
	reviews      reviewCreator
	logger       *zap.Logger
}

// NewPageHandler constructs a page handler.
func NewPageHandler(pages pageComposer, universities universityLister, reviews reviewCreator, log *zap.Logger) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{pages: pages, universities: universities, reviews: reviews, logger: log}
}

// Landing renders the home page.
func (h *PageHandler) Landing(c *gin.Context) {
	renderPage(c, http.StatusOK, "landing", gin.H{"Title": ""})
}

// NotFound renders the not-found page for unknown routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	renderPage(c, http.StatusNotFound, "error", gin.H{
		"Title":   "Not found",
		"Message": "The page you are looking for does not exist.",
	})
}

// Universities renders the university list, optionally filtered by ?search.
func (h *PageHandler) Universities(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	universities, err := h.universities.List(c.Request.Context(), search)
	if err != nil {
		renderErrorPage(c, h.logger, err)
		return
	}
	renderPage(c, http.StatusOK, "universities", gin.H{
		"Title":        "Universities",
		"Search":       search,
		"Universities": universities,
	})
}

// Subjects renders a university's filtered, paginated subject list.
func (h *PageHandler) Subjects(c *gin.Context) {
	data, err := h.pages.SubjectsPage(c.Request.Context(), service.SubjectsPageQuery{
		UniversityName: c.Param("name"),
		FacultyID:      strings.TrimSpace(c.Query("faculty")),
		CategoryCode:   strings.TrimSpace(c.Query("category")),
		Search:         strings.TrimSpace(c.Query("search")),
		SortBy:         models.ParseSubjectSort(c.Query("sort")),
		Page:           queryInt(c, "page", 1),
	})
	if err != nil {
		renderErrorPage(c, h.logger, err)
		return
	}
	renderPage(c, http.StatusOK, "subjects", gin.H{
		"Title": data.University.Name,
		"Page":  data,
	})
}

// Subject renders a subject with its statistics and one page of reviews.
func (h *PageHandler) Subject(c *gin.Context) {
	data, err := h.pages.SubjectPage(c.Request.Context(), c.Param("name"), c.Param("subjectCode"), queryInt(c, "page", 1))
	if err != nil {
		renderErrorPage(c, h.logger, err)
		return
	}
	renderPage(c, http.StatusOK, "subject", gin.H{
		"Title":      data.Subject.Name,
		"Page":       data,
		"Dimensions": models.Dimensions,
	})
}

// WriteReviewForm renders the review form, or a notice when the user already reviewed the subject.
func (h *PageHandler) WriteReviewForm(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	data, err := h.pages.WriteReviewPage(c.Request.Context(), c.Param("name"), c.Param("subjectCode"), session.UserID())
	if err != nil {
		h.redirectOrFail(c, universityOf(data), err)
		return
	}
	h.renderForm(c, http.StatusOK, data, service.CreateReviewRequest{}, "")
}

// SubmitReview stores a review from the form and returns to the subject page.
func (h *PageHandler) SubmitReview(c *gin.Context) {
	ctx := c.Request.Context()
	session := middleware.SessionFromContext(c)

	university, subject, err := h.pages.ResolveSubject(ctx, c.Param("name"), c.Param("subjectCode"))
	if err != nil {
		h.redirectOrFail(c, university, err)
		return
	}
	data := &service.WriteReviewPageData{University: university, Subject: subject}

	var req service.CreateReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderForm(c, http.StatusBadRequest, data, req, "All ratings must be between 1 and 5.")
		return
	}
	req.SubjectID = subject.ID
	req.UserID = session.UserID()
	req.IsVerifiedStudent = session.VerifiedStudent

	if _, err := h.reviews.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, appErrors.ErrAlreadyReviewed):
			data.AlreadyReviewed = true
			h.renderForm(c, http.StatusConflict, data, req, "")
		case errors.Is(err, appErrors.ErrValidation):
			h.renderForm(c, http.StatusBadRequest, data, req, appErrors.FromError(err).Message)
		default:
			_ = c.Error(err)
			logger.FromContext(c, h.logger).Error("review submission failed", zap.String("subject_id", subject.ID), zap.Error(err))
			h.renderForm(c, http.StatusInternalServerError, data, req, "We could not save your review. Please try again.")
		}
		return
	}

	c.Redirect(http.StatusSeeOther, subjectPath(university, subject))
}

func (h *PageHandler) renderForm(c *gin.Context, status int, data *service.WriteReviewPageData, req service.CreateReviewRequest, message string) {
	renderPage(c, status, "write_review", gin.H{
		"Title": "Review " + data.Subject.Name,
		"Page":  data,
		"Error": message,
		"Fields": []ratingField{
			{Name: "overall_rating", Label: "Overall", Value: req.OverallRating},
			{Name: "difficulty_rating", Label: "Difficulty", Value: req.DifficultyRating},
			{Name: "workload_rating", Label: "Workload", Value: req.WorkloadRating},
			{Name: "teaching_quality_rating", Label: "Teaching quality", Value: req.TeachingQualityRating},
		},
		"Content": req.Content,
	})
}

// redirectOrFail sends unknown universities home and unknown subjects back to their
// university; other failures render the error page.
func (h *PageHandler) redirectOrFail(c *gin.Context, university *models.University, err error) {
	if !errors.Is(err, appErrors.ErrNotFound) {
		renderErrorPage(c, h.logger, err)
		return
	}
	if university == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, "/universities/"+url.PathEscape(university.ShortName))
}

func subjectPath(university *models.University, subject *models.Subject) string {
	return "/universities/" + url.PathEscape(university.ShortName) + "/" + url.PathEscape(subject.Code)
}

func universityOf(data *service.WriteReviewPageData) *models.University {
	if data == nil {
		return nil
	}
	return data.University
}
