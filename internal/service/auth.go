package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
)

// AuthService verifies bearer tokens through the configured identity
// verifier.
type AuthService struct {
	verifier auth.Verifier
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(verifier auth.Verifier, logger *slog.Logger) *AuthService {
	return &AuthService{verifier: verifier, logger: discardIfNil(logger)}
}

// Login verifies token and returns the caller's identity.
func (s *AuthService) Login(ctx context.Context, token string) (*domain.UserIdentity, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		s.logger.Warn("login failed", "error", err)
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.UserID)
	return user, nil
}

// Authenticate verifies token without logging a login event. Handlers use it
// on every authenticated request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.UserIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domainerrors.Unauthorized("missing token")
	}

	user, err := s.verifier.Verify(ctx, token)
	if err != nil {
		var de *domainerrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}
	return user, nil
}
