package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
	"github.com/punchlineapp/punchline-server/internal/id"
)

const (
	tokenIssuer   = "punchline-server"
	tokenAudience = "punchline-client"
)

// localClaims are the claims carried in a local development token.
type localClaims struct {
	Subject    string    `json:"sub"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Expiration time.Time `json:"exp"`
}

// LocalVerifier issues and verifies PASETO v4.local tokens.
type LocalVerifier struct {
	key      paseto.V4SymmetricKey
	duration time.Duration
	now      func() time.Time
}

var _ Verifier = (*LocalVerifier)(nil)

// NewLocalVerifier creates a verifier from a 32-byte key. Issued tokens
// live for duration.
func NewLocalVerifier(key []byte, duration time.Duration) (*LocalVerifier, error) {
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &LocalVerifier{key: k, duration: duration, now: time.Now}, nil
}

// Issue mints a token for userID. Email may be empty.
func (v *LocalVerifier) Issue(userID, email string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, "/") {
		return "", time.Time{}, domainerrors.Validation("uid must be non-empty and contain no slash")
	}
	now := v.now()
	expires := now.Add(v.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	jti, err := id.Generate("tok")
	if err != nil {
		return "", time.Time{}, err
	}
	token.SetJti(jti)
	if email != "" {
		//nolint:errcheck // Set only fails for values that cannot be marshaled
		_ = token.Set("email", email)
	}

	return token.V4Encrypt(v.key, nil), expires, nil
}

// Verify implements Verifier.
func (v *LocalVerifier) Verify(_ context.Context, raw string) (*domain.UserIdentity, error) {
	if raw == "" {
		return nil, domainerrors.Unauthorized("missing token")
	}

	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(v.key, raw, nil)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	var claims localClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, domainerrors.Unauthorized("invalid token claims").WithCause(err)
	}
	if !claims.Expiration.IsZero() && v.now().After(claims.Expiration) {
		return nil, domainerrors.ErrTokenExpired
	}
	if claims.Subject == "" {
		return nil, domainerrors.Unauthorized("token has no subject")
	}

	return &domain.UserIdentity{
		UserID: claims.Subject,
		Email:  emailFallback(claims.Email, claims.Name),
	}, nil
}
