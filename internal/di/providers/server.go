package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/api"
	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/logger"
	"github.com/punchlineapp/punchline-server/internal/ratelimit"
	"github.com/punchlineapp/punchline-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	devTokens := do.MustInvoke[*DevTokens](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:         do.MustInvoke[*service.AuthService](i),
		Jokes:        do.MustInvoke[*service.JokeService](i),
		Interactions: do.MustInvoke[*service.InteractionService](i),
		Selector:     do.MustInvoke[*service.SelectorService](i),
	}

	var limiter *ratelimit.KeyedRateLimiter
	if cfg.RateLimit.LoginPerMinute > 0 {
		limiter = ratelimit.PerMinute(cfg.RateLimit.LoginPerMinute, 10*time.Minute)
	}

	handler := api.NewServer(storeHandle.Store, services, api.Options{
		LoginLimiter: limiter,
		DevTokens:    devTokens.Issuer,
	}, log.WithComponent("http").Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "docs", "/docs")

	return &HTTPServerHandle{Server: srv, limiter: limiter}, nil
}
