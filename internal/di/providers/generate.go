package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/generate"
	"github.com/punchlineapp/punchline-server/internal/logger"
)

// GeneratorHandle holds the joke generator. Generator is nil when
// generation is disabled.
type GeneratorHandle struct {
	Generator generate.Generator
}

// ProvideGenerator provides the Gemini generator when GEMINI_API_KEY is set.
func ProvideGenerator(i do.Injector) (*GeneratorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Generate.Enabled() {
		log.Info("Joke generation disabled, no Gemini API key configured")
		return &GeneratorHandle{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	g, err := generate.NewGeminiGenerator(ctx, generate.Config{
		APIKey:  cfg.Generate.APIKey,
		Model:   cfg.Generate.Model,
		Timeout: cfg.Generate.Timeout,
	}, log.WithComponent("generate").Logger)
	if err != nil {
		return nil, err
	}
	log.Info("Joke generator ready", "model", cfg.Generate.Model, "min_candidates", cfg.Generate.MinCandidates)
	return &GeneratorHandle{Generator: g}, nil
}
