package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

// AccessToken is the response payload for a successful admin login.
type AccessToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminService authenticates the configured admin and issues access tokens.
type AdminService struct {
	username     string
	passwordHash string
	jwt          *JWTManager
	accessTTL    time.Duration
	logger       *slog.Logger
}

// NewAdminService creates an admin auth service. The password hash is a
// bcrypt digest from configuration; an empty hash disables login entirely.
func NewAdminService(username, passwordHash string, jwt *JWTManager, accessTTL time.Duration, logger *slog.Logger) *AdminService {
	return &AdminService{
		username:     username,
		passwordHash: passwordHash,
		jwt:          jwt,
		accessTTL:    accessTTL,
		logger:       logger,
	}
}

// Login verifies the credentials against the configured admin and returns a
// signed access token. Wrong username and wrong password produce the same
// error so callers cannot probe which half was wrong.
func (s *AdminService) Login(ctx context.Context, username, password string) (*AccessToken, error) {
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	if s.passwordHash == "" {
		s.logger.WarnContext(ctx, "admin login attempted but no password hash is configured")
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	if username != s.username {
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	token, err := s.jwt.GenerateAccessToken(username, RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.InfoContext(ctx, "admin logged in",
		slog.String("username", username),
	)

	return &AccessToken{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: time.Now().UTC().Add(s.accessTTL),
	}, nil
}

// Validate checks an access token and returns its claims. Used by the HTTP
// auth middleware.
func (s *AdminService) Validate(token string) (*Claims, error) {
	return s.jwt.ValidateAccessToken(token)
}
