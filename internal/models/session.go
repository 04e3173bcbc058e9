package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of identity provider access tokens.
type SessionClaims struct {
	Email           string `json:"email"`
	VerifiedStudent bool   `json:"verified_student,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim, which carries the provider's user id.
func (c *SessionClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// LoginRequest holds credentials forwarded to the identity provider.
type LoginRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Session is an issued access token and its lifetime in seconds.
type Session struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
