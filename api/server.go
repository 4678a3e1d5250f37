/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logger:     zap request logging (method, path, status, bytes, duration)
  4. CORS:       Cross-origin requests for the frontend
  The parse endpoints additionally sit behind a token-bucket rate limiter.

ROUTE GROUPS:
  /api/parse, /api/import   Lead parsing and import
  /api/clients/*            Client management and status
  /api/tasks/*              Task management
  /api/settings/*           Working-day calendar and overrides
  /api/agenda, /calendar    Read models
  /api/state                Whole-store export/import
  /api/scenarios/*          Demo lead dumps

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/followup/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	ParseRate      rate.Limit
	ParseBurst     int
	Logger         *zap.Logger
}

// DefaultRouterOptions matches the configuration defaults.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		AllowedOrigins: []string{"*"},
		ParseRate:      5,
		ParseBurst:     10,
		Logger:         zap.NewNop(),
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(opts.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
	}))

	parseLimiter := RateLimit(rate.NewLimiter(opts.ParseRate, opts.ParseBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Lead routes
		r.With(parseLimiter).Post("/parse", h.ParseLeads)
		r.With(parseLimiter).Post("/import", h.ImportLeads)

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeleteClient)
			r.Post("/{id}/status", h.SetClientStatus)
			r.Delete("/{id}/manual-tasks", h.ClearManualTasks)
		})

		// Task routes
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Post("/{id}/done", h.CompleteTask)
			r.Post("/{id}/reopen", h.ReopenTask)
			r.Delete("/{id}", h.DeleteTask)
		})

		// Calendar settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
			r.Put("/overrides", h.SetOverride)
			r.Delete("/overrides/{date}", h.ClearOverride)
		})
		r.Post("/regenerate", h.Regenerate)

		// Views
		r.Get("/agenda", h.Agenda)
		r.Get("/calendar", h.Calendar)

		// Whole-store state
		r.Get("/state", h.ExportState)
		r.Put("/state", h.ImportState)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
