package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/middleware"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/logger"
)

// renderPage executes a page template, adding the session so the header can show it.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Session"] = middleware.SessionFromContext(c)
	if _, ok := data["Path"]; !ok {
		data["Path"] = c.Request.URL.Path
	}
	c.HTML(status, name, data)
}

// renderErrorPage shows a not-found page for missing records and a generic failure page
// for everything else. Failures are logged with the request id.
func renderErrorPage(c *gin.Context, log *zap.Logger, err error) {
	if errors.Is(err, appErrors.ErrNotFound) {
		renderPage(c, http.StatusNotFound, "error", gin.H{
			"Title":   "Not found",
			"Message": appErrors.FromError(err).Message,
		})
		return
	}
	_ = c.Error(err)
	logger.FromContext(c, log).Error("page render failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	renderPage(c, http.StatusInternalServerError, "error", gin.H{
		"Title":   "Something went wrong",
		"Message": "We could not load this page. Please try again later.",
	})
}

// queryInt reads a positive integer query parameter, returning fallback when it is absent or malformed.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
