package providers

import (
	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/logger"
	"github.com/punchlineapp/punchline-server/internal/service"
)

// ProvideAuthService provides the login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	verifier := do.MustInvoke[auth.Verifier](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewAuthService(verifier, log.WithComponent("auth").Logger), nil
}

// ProvideJokeService provides the joke service.
func ProvideJokeService(i do.Injector) (*service.JokeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	audioHandle := do.MustInvoke[*AudioHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewJokeService(storeHandle.Store, audioHandle.Resolver, log.WithComponent("jokes").Logger), nil
}

// ProvideInteractionService provides the favorites and reactions service.
func ProvideInteractionService(i do.Injector) (*service.InteractionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	jokes := do.MustInvoke[*service.JokeService](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewInteractionService(storeHandle.Store, jokes, log.WithComponent("interactions").Logger), nil
}

// ProvideSelectorService provides the personalized joke selector.
func ProvideSelectorService(i do.Injector) (*service.SelectorService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	genHandle := do.MustInvoke[*GeneratorHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	var opts []service.SelectorOption
	if genHandle.Generator != nil {
		jokes := do.MustInvoke[*service.JokeService](i)
		opts = append(opts, service.WithGenerator(genHandle.Generator, jokes, cfg.Generate.MinCandidates))
	}
	return service.NewSelectorService(storeHandle.Store, log.WithComponent("selector").Logger, opts...), nil
}
