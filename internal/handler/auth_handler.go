package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/middleware"
	"github.com/noah-isme/unirate/internal/models"
	"github.com/noah-isme/unirate/internal/service"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/logger"
	"github.com/noah-isme/unirate/pkg/response"
)

type authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, *models.SessionClaims, error)
}

// CookieConfig describes the session cookie written after login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler exchanges credentials with the identity provider and manages the session cookie.
type AuthHandler struct {
	service authenticator
	cookie  CookieConfig
	logger  *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authenticator, cookie CookieConfig, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{service: svc, cookie: cookie, logger: log}
}

// LoginForm renders the login page. Signed-in visitors go straight to their destination.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	redirect := service.SafeRedirect(c.Query("redirect"))
	if middleware.SessionFromContext(c) != nil {
		c.Redirect(http.StatusFound, redirect)
		return
	}
	renderPage(c, http.StatusOK, "login", gin.H{"Title": "Log in", "Redirect": redirect})
}

// Login handles the login form post.
func (h *AuthHandler) Login(c *gin.Context) {
	redirect := service.SafeRedirect(c.PostForm("redirect"))
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		renderPage(c, http.StatusBadRequest, "login", gin.H{
			"Title":    "Log in",
			"Redirect": redirect,
			"Error":    "Enter a valid email address and password.",
		})
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	session, _, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= http.StatusInternalServerError {
			logger.FromContext(c, h.logger).Warn("login failed", zap.Error(err))
		}
		renderPage(c, appErr.Status, "login", gin.H{
			"Title":    "Log in",
			"Redirect": redirect,
			"Email":    req.Email,
			"Error":    loginMessage(err),
		})
		return
	}

	h.setCookie(c, session.AccessToken, session.ExpiresIn)
	c.Redirect(http.StatusSeeOther, redirect)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/")
}

// Token godoc
// @Summary Obtain an access token
// @Description Exchange email and password for an identity provider access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	session, _, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, session, nil, middleware.ExtractMeta(c))
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrInvalidLogin):
		return "Invalid email or password."
	case errors.Is(err, appErrors.ErrValidation):
		return "Enter a valid email address and password."
	default:
		return "Login is unavailable right now. Please try again later."
	}
}
