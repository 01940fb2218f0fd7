package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/llm-gateway/app"
	"github.com/upb/llm-gateway/handlers"
	"github.com/upb/llm-gateway/middleware"
	"github.com/upb/llm-gateway/utils"
)

// Version is reported by the status endpoint; set at build time
var Version = "dev"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware. No request timeout: streamed completions are bounded
	// by the client connection and UPSTREAM_TIMEOUT instead.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ExposeRequestID)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{middleware.RequestIDHeader, handlers.HeaderSessionID, handlers.HeaderProviderUsed},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.Registry, deps.Breaker, deps.Scheduler, handlers.StatusInfo{
		Version:     Version,
		Environment: deps.Config.Environment,
	}, deps.Logger)
	chat := handlers.NewChatHandler(deps.Injector, deps.Logger)
	sessions := handlers.NewSessionHandler(deps.Sessions, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", health.HandleStatus)
		r.Post("/chat/completions", chat.HandleChatCompletion)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.HandleList)
			r.Get("/{id}", sessions.HandleGet)
			r.Delete("/{id}", sessions.HandleDelete)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, handlers.MsgEndpointNotFound, "")
	})

	return r
}
