package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/response"
)

// ContextSessionKey is the gin context key storing verified session claims.
const ContextSessionKey = "session"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

type tokenValidator interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

// SessionFromContext returns the claims attached by a session middleware, or nil.
func SessionFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// tokenFromRequest prefers a Bearer header and falls back to the session cookie.
func tokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func attachSession(c *gin.Context, auth tokenValidator, cookieName string) (*models.SessionClaims, error) {
	token := tokenFromRequest(c, cookieName)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	c.Set(ContextSessionKey, claims)
	return claims, nil
}

// OptionalSession attaches claims when a valid session is present but never blocks.
func OptionalSession(auth tokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = attachSession(c, auth, cookieName)
		c.Next()
	}
}

// RequireSessionAPI rejects requests without a valid session with 401.
func RequireSessionAPI(auth tokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionFromContext(c) != nil {
			c.Next()
			return
		}
		if _, err := attachSession(c, auth, cookieName); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSessionPage redirects requests without a valid session to the login page,
// carrying the requested path so login can return there.
func RequireSessionPage(auth tokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionFromContext(c) != nil {
			c.Next()
			return
		}
		if _, err := attachSession(c, auth, cookieName); err != nil {
			c.Redirect(http.StatusFound, LoginPath+"?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}
