// Package di provides dependency injection configuration for the Punchline server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/di/providers"
	"github.com/punchlineapp/punchline-server/internal/logger"
	"github.com/punchlineapp/punchline-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	Register(injector)
	return injector
}

// Register adds every provider to injector. Tools that only need part of
// the graph call it and then override the config provider.
func Register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAudioResolver)
	do.Provide(injector, providers.ProvideGenerator)

	// Auth layer
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideDevTokens)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideJokeService)
	do.Provide(injector, providers.ProvideInteractionService)
	do.Provide(injector, providers.ProvideSelectorService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector do.Injector) error {
	steps := []func() error{
		func() error { _, err := do.Invoke[*config.Config](injector); return err },
		func() error { _, err := do.Invoke[*logger.Logger](injector); return err },
		func() error { _, err := do.Invoke[*providers.StoreHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.AudioHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.GeneratorHandle](injector); return err },
		func() error { _, err := do.Invoke[auth.Verifier](injector); return err },
		func() error { _, err := do.Invoke[*service.AuthService](injector); return err },
		func() error { _, err := do.Invoke[*service.JokeService](injector); return err },
		func() error { _, err := do.Invoke[*service.InteractionService](injector); return err },
		func() error { _, err := do.Invoke[*service.SelectorService](injector); return err },
		func() error { _, err := do.Invoke[*providers.HTTPServerHandle](injector); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops every service in reverse dependency order. do returns a
// report even on success, so only a failed report becomes an error.
func Shutdown(injector do.Injector) error {
	report := injector.Shutdown()
	if report == nil || report.Succeed {
		return nil
	}
	return report
}
