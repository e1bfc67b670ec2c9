// Package api provides the HTTP API server and handlers for the Punchline
// joke service.
package api

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/punchlineapp/punchline-server/internal/auth"
	"github.com/punchlineapp/punchline-server/internal/ratelimit"
	"github.com/punchlineapp/punchline-server/internal/service"
	"github.com/punchlineapp/punchline-server/internal/store"
	"github.com/punchlineapp/punchline-server/internal/validation"
)

//go:embed static
var staticFiles embed.FS

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Services holds the business services the handlers call.
type Services struct {
	Auth         *service.AuthService
	Jokes        *service.JokeService
	Interactions *service.InteractionService
	Selector     *service.SelectorService
}

// Options configures optional server features.
type Options struct {
	// LoginLimiter throttles POST /api/login per client IP. Nil disables it.
	LoginLimiter *ratelimit.KeyedRateLimiter
	// DevTokens, when set, enables POST /api/dev/token.
	DevTokens *auth.LocalVerifier
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        *store.Store
	services     *Services
	router       *chi.Mux
	api          huma.API
	validator    *validation.Validator
	loginLimiter *ratelimit.KeyedRateLimiter
	devTokens    *auth.LocalVerifier
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	humaConfig := huma.DefaultConfig("Punchline API", Version)
	humaConfig.Info.Description = "Jokes with per-user favorites, likes and dislikes"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:   "http",
			Scheme: "bearer",
		},
	}

	RegisterErrorHandler()

	s := &Server{
		store:        st,
		services:     services,
		router:       router,
		api:          humachi.New(router, humaConfig),
		validator:    validation.New(),
		loginLimiter: opts.LoginLimiter,
		devTokens:    opts.DevTokens,
		logger:       logger,
	}

	s.registerRootRoutes()
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerJokeRoutes()
	s.registerUserRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used by tests and the OpenAPI dump.
func (s *Server) API() huma.API {
	return s.api
}

// RootResponse is the service banner.
type RootResponse struct {
	Message string `json:"message" doc:"Service status message"`
	Docs    string `json:"docs" doc:"Path of the interactive API docs"`
}

// RootOutput wraps the banner for Huma.
type RootOutput struct {
	Body RootResponse
}

func (s *Server) registerRootRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service banner",
		Tags:        []string{"Health"},
	}, func(_ context.Context, _ *struct{}) (*RootOutput, error) {
		return &RootOutput{Body: RootResponse{Message: "Punchline API is running", Docs: "/docs"}}, nil
	})

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(sub)))
	// FileServer redirects ".../index.html" to the directory; serve the page
	// under its file name as well.
	s.router.Get("/static/index.html", serveIndex(sub))
}

func serveIndex(fsys fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := fs.ReadFile(fsys, "index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.LogAttrs(r.Context(), levelForStatus(ww.Status()), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
