package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/logger"
)

// ProvideVerifier provides the identity verifier selected by AUTH_PROVIDER.
func ProvideVerifier(i do.Injector) (auth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	return auth.NewVerifier(ctx, cfg, log.Logger)
}

// DevTokens holds the local verifier when local auth is active, so the
// dev token endpoint can mint tokens. Issuer is nil otherwise.
type DevTokens struct {
	Issuer *auth.LocalVerifier
}

// ProvideDevTokens provides the dev token issuer.
func ProvideDevTokens(i do.Injector) (*DevTokens, error) {
	verifier := do.MustInvoke[auth.Verifier](i)
	local, _ := verifier.(*auth.LocalVerifier)
	return &DevTokens{Issuer: local}, nil
}
