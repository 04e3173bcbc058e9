package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
)

type stubAuthenticator struct {
	session *models.Session
	err     error
	last    models.LoginRequest
}

func (s *stubAuthenticator) Login(_ context.Context, req models.LoginRequest) (*models.Session, *models.SessionClaims, error) {
	s.last = req
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.session, &models.SessionClaims{Email: req.Email}, nil
}

func loginForm(email, password, redirect string) string {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	form.Set("redirect", redirect)
	return form.Encode()
}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	auth := &stubAuthenticator{session: &models.Session{AccessToken: "token-1", ExpiresIn: 3600}}
	handler := NewAuthHandler(auth, CookieConfig{Name: "unirate_session", Secure: true}, nil)
	c, w := newTestContext(t, http.MethodPost, "/login", loginForm(" a@b.edu ", "secret", "/universities/TalTech"), "application/x-www-form-urlencoded")

	handler.Login(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/universities/TalTech", w.Header().Get("Location"))
	assert.Equal(t, "a@b.edu", auth.last.Email)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "unirate_session", cookies[0].Name)
	assert.Equal(t, "token-1", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestAuthHandlerLoginRejectsOffsiteRedirect(t *testing.T) {
	auth := &stubAuthenticator{session: &models.Session{AccessToken: "token-1", ExpiresIn: 60}}
	handler := NewAuthHandler(auth, CookieConfig{Name: "unirate_session"}, nil)
	c, w := newTestContext(t, http.MethodPost, "/login", loginForm("a@b.edu", "secret", "//evil.example"), "application/x-www-form-urlencoded")

	handler.Login(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/universities", w.Header().Get("Location"))
}

func TestAuthHandlerLoginFailureRendersForm(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "bad credentials", err: appErrors.ErrInvalidLogin, status: http.StatusUnauthorized, message: "Invalid email or password."},
		{name: "invalid input", err: appErrors.Clone(appErrors.ErrValidation, "email is required"), status: http.StatusBadRequest, message: "Enter a valid email address and password."},
		{name: "provider down", err: appErrors.ErrUpstream, status: http.StatusBadGateway, message: "Login is unavailable right now."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAuthHandler(&stubAuthenticator{err: tc.err}, CookieConfig{Name: "unirate_session"}, nil)
			c, w := newTestContext(t, http.MethodPost, "/login", loginForm("a@b.edu", "wrong", "/universities"), "application/x-www-form-urlencoded")

			handler.Login(c)

			requireStatus(t, w, tc.status)
			assert.Contains(t, w.Body.String(), tc.message)
			assert.Contains(t, w.Body.String(), "a@b.edu")
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestAuthHandlerLoginMalformedBodyRendersForm(t *testing.T) {
	auth := &stubAuthenticator{session: &models.Session{AccessToken: "token-1", ExpiresIn: 60}}
	handler := NewAuthHandler(auth, CookieConfig{Name: "unirate_session"}, nil)
	c, w := newTestContext(t, http.MethodPost, "/login", "{", "application/json")

	handler.Login(c)

	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "Enter a valid email address and password.")
	assert.Empty(t, auth.last.Email)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandlerLoginFormRedirectsSignedInUser(t *testing.T) {
	handler := NewAuthHandler(&stubAuthenticator{}, CookieConfig{Name: "unirate_session"}, nil)
	c, w := newTestContext(t, http.MethodGet, "/login?redirect=/universities/TalTech", "", "")
	withSession(c, "user-1", false)

	handler.LoginForm(c)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/universities/TalTech", w.Header().Get("Location"))
}

func TestAuthHandlerLoginFormRenders(t *testing.T) {
	handler := NewAuthHandler(&stubAuthenticator{}, CookieConfig{Name: "unirate_session"}, nil)
	c, w := newTestContext(t, http.MethodGet, "/login?redirect=https://evil.example", "", "")

	handler.LoginForm(c)

	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `name="redirect" value="/universities"`)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	handler := NewAuthHandler(&stubAuthenticator{}, CookieConfig{Name: "unirate_session"}, nil)
	c, w := newTestContext(t, http.MethodPost, "/logout", "", "")

	handler.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestAuthHandlerToken(t *testing.T) {
	auth := &stubAuthenticator{session: &models.Session{AccessToken: "token-1", ExpiresIn: 60}}
	handler := NewAuthHandler(auth, CookieConfig{Name: "unirate_session"}, nil)
	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/token", `{"email":"a@b.edu","password":"secret"}`, "application/json")

	handler.Token(c)

	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"access_token":"token-1"`)
}
