package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/api/option"

	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
)

// idTokenVerifier is the part of the Firebase auth client we use.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client idTokenVerifier
}

var _ Verifier = (*FirebaseVerifier)(nil)

// NewFirebaseVerifier initializes the Admin SDK. An empty credentialsFile
// uses Application Default Credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*domain.UserIdentity, error) {
	if raw == "" {
		return nil, domainerrors.Unauthorized("missing token")
	}

	token, err := v.client.VerifyIDToken(ctx, raw)
	switch {
	case err == nil:
	case firebaseauth.IsIDTokenExpired(err):
		return nil, domainerrors.ErrTokenExpired.WithCause(err)
	case errorutils.IsUnavailable(err), errorutils.IsDeadlineExceeded(err), ctx.Err() != nil:
		return nil, domainerrors.Upstream(err, "identity provider unavailable")
	default:
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	return &domain.UserIdentity{
		UserID: token.UID,
		Email:  emailFallback(email, name),
	}, nil
}
