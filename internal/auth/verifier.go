// Package auth verifies bearer tokens and resolves them to a caller identity.
//
// Production deployments verify Firebase ID tokens. Local development uses
// PASETO v4.local tokens minted by the server itself, so the API can be
// exercised without a Firebase project.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/domain"
)

// Verifier resolves a bearer token to the identity it was issued for.
//
// Errors are *errors.Error values: CodeUnauthorized or CodeTokenExpired
// when the token is bad, CodeUpstream when the provider cannot be reached.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.UserIdentity, error)
}

// NewVerifier builds the verifier selected by cfg.Auth.Provider.
func NewVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Verifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthFirebase:
		v, err := NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProject, cfg.Auth.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		logger.Info("identity verifier ready", "provider", "firebase", "project", cfg.Auth.FirebaseProject)
		return v, nil

	case config.AuthLocal:
		key, err := LoadOrGenerateKey(cfg.Store.KeyPath())
		if err != nil {
			return nil, err
		}
		v, err := NewLocalVerifier(key, cfg.Auth.DevTokenDuration)
		if err != nil {
			return nil, err
		}
		logger.Warn("identity verifier ready in local mode; tokens are self-issued", "provider", "local")
		return v, nil

	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is missing or not a bearer credential.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// emailFallback picks the display email the way login always has: the
// email claim, else the name claim, else a placeholder.
func emailFallback(email, name string) string {
	switch {
	case email != "":
		return email
	case name != "":
		return name
	default:
		return "No email"
	}
}
