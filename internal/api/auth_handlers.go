package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/login",
		Summary:     "Login",
		Description: "Verifies an identity token and returns the caller's user ID and email",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{s.limitLogins},
	}, s.handleLogin)

	if s.devTokens == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "issueDevToken",
		Method:      http.MethodPost,
		Path:        "/api/dev/token",
		Summary:     "Issue development token",
		Description: "Mints a local token for any user ID. Only registered when the local verifier is active.",
		Tags:        []string{"Auth"},
	}, s.handleIssueDevToken)
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Token string `json:"token" validate:"notblank" doc:"Identity token from the client SDK"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// LoginResponse contains the verified identity.
type LoginResponse struct {
	Message   string `json:"message" doc:"Status message"`
	UserID    string `json:"user_id" doc:"Verified user ID"`
	UserEmail string `json:"user_email" doc:"Email, display name, or \"No email\""`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body LoginResponse
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Login(ctx, input.Body.Token)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{Body: LoginResponse{
		Message:   "Login successful",
		UserID:    user.UserID,
		UserEmail: user.Email,
	}}, nil
}

// DevTokenRequest is the request body for minting a development token.
type DevTokenRequest struct {
	UserID string `json:"user_id" validate:"notblank,max=128,excludes=/" doc:"User ID to put in the token"`
	Email  string `json:"email,omitempty" validate:"omitempty,email" doc:"Email claim"`
}

// DevTokenInput wraps the dev token request for Huma.
type DevTokenInput struct {
	Body DevTokenRequest
}

// DevTokenResponse carries a freshly minted token.
type DevTokenResponse struct {
	Token     string    `json:"token" doc:"Bearer token"`
	ExpiresAt time.Time `json:"expires_at" doc:"Token expiry"`
}

// DevTokenOutput wraps the dev token response for Huma.
type DevTokenOutput struct {
	Body DevTokenResponse
}

func (s *Server) handleIssueDevToken(_ context.Context, input *DevTokenInput) (*DevTokenOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	token, expires, err := s.devTokens.Issue(input.Body.UserID, input.Body.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("development token issued", "user_id", input.Body.UserID, "expires_at", expires)

	return &DevTokenOutput{Body: DevTokenResponse{Token: token, ExpiresAt: expires}}, nil
}

// limitLogins rejects login attempts once a client IP exceeds its budget.
func (s *Server) limitLogins(ctx huma.Context, next func(huma.Context)) {
	if s.loginLimiter == nil {
		next(ctx)
		return
	}

	ip := clientIP(ctx.RemoteAddr())
	if !s.loginLimiter.Allow(ip) {
		s.logger.Warn("login rate limit exceeded", "ip", ip)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "",
			domainerrors.RateLimited("too many login attempts, try again later"))
		return
	}
	next(ctx)
}

// clientIP strips the port from a remote address. RealIP middleware has
// already replaced it with the forwarded client address when present.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// authenticate verifies the bearer token in an Authorization header.
func (s *Server) authenticate(ctx context.Context, header string) (*domain.UserIdentity, error) {
	token := auth.BearerToken(header)
	if token == "" {
		return nil, domainerrors.Unauthorized("missing or malformed authorization header")
	}
	return s.services.Auth.Authenticate(ctx, token)
}

// requireSelf authenticates the request and checks that the caller is
// userID. Acting on another user's data is forbidden.
func (s *Server) requireSelf(ctx context.Context, header, userID string) (*domain.UserIdentity, error) {
	caller, err := s.authenticate(ctx, header)
	if err != nil {
		return nil, err
	}
	if !caller.Is(userID) {
		return nil, domainerrors.Forbidden("you can only access your own account")
	}
	return caller, nil
}

// optionalSelf is requireSelf for endpoints where authentication is
// optional. Without a header the caller is anonymous and nil is returned.
func (s *Server) optionalSelf(ctx context.Context, header, userID string) (*domain.UserIdentity, error) {
	if header == "" {
		return nil, nil
	}
	return s.requireSelf(ctx, header, userID)
}
