package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/models"
	appErrors "github.com/noah-isme/unirate/pkg/errors"
	"github.com/noah-isme/unirate/pkg/identity"
)

// DefaultRedirect is where login sends users when no safe target was supplied.
const DefaultRedirect = "/universities"

type identityProvider interface {
	PasswordGrant(ctx context.Context, email, password string) (*identity.Token, error)
}

// AuthConfig defines how session tokens are verified.
type AuthConfig struct {
	JWTSecret string
	Audience  string
}

// AuthService verifies session tokens and signs users in at the identity provider.
type AuthService struct {
	provider  identityProvider
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(provider identityProvider, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{provider: provider, validator: validate, logger: logger, config: config}
}

// Login exchanges credentials for a session token and returns it with its verified claims.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, *models.SessionClaims, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required")
	}
	if s.provider == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUpstream, "")
	}

	token, err := s.provider.PasswordGrant(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidLogin, "")
		}
		s.logger.Error("identity provider login failed", zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}

	claims, err := s.ValidateToken(token.AccessToken)
	if err != nil {
		s.logger.Error("identity provider issued an unverifiable token", zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "identity provider returned an invalid token")
	}

	return &models.Session{AccessToken: token.AccessToken, ExpiresIn: token.ExpiresIn}, claims, nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing token")
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.UserID() == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// SafeRedirect returns target when it is a local absolute path, otherwise DefaultRedirect.
func SafeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return DefaultRedirect
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return DefaultRedirect
	}
	return target
}
