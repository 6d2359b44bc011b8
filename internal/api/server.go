package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/matchwatch/matchwatch/internal/api/handler"
	"github.com/matchwatch/matchwatch/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Worker and channel counters
		r.Get("/stats", h.GetStats)
		r.Get("/activity", h.GetActivity)

		// Leagues and events
		r.Get("/leagues", h.GetLeagues)
		r.Get("/leagues/{leagueID}/events", h.GetLeagueEvents)
		r.Get("/events/active", h.GetActiveEvents)

		// Notifications
		r.Post("/notifications/test", h.SendTestNotification)

		// Admin: manually entered games
		r.Route("/admin", func(r chi.Router) {
			r.Get("/teams", h.GetTeams)
			r.Route("/games", func(r chi.Router) {
				r.Get("/", h.ListGames)
				r.Post("/", h.CreateGame)
				r.Get("/{id}", h.GetGame)
				r.Put("/{id}", h.UpdateGame)
				r.Delete("/{id}", h.DeleteGame)
			})
		})
	})

	return r
}
