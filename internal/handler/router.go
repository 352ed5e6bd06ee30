package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/premiumbutcher/profile-api/internal/middleware"
)

// RouterConfig carries the handlers and middleware settings for NewRouter.
type RouterConfig struct {
	Logger *slog.Logger

	Root    *Handler
	Health  *HealthHandler
	Metrics *MetricsHandler
	Profile *ProfileHandler
	Header  *HeaderHandler

	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimitConfig
	CORS      middleware.CORSConfig
	Security  middleware.SecurityConfig

	MaxRequestBodySize int64
}

const defaultMaxBodySize = 1 << 20

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = defaultMaxBodySize
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	// Public endpoints
	r.Get("/", cfg.Root.Info)
	r.Get("/health", cfg.Health.Status)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Metrics.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.RateLimitIP(cfg.RateLimit))
		r.Use(middleware.Auth(cfg.Auth))
		r.Use(middleware.RateLimitAccount(cfg.RateLimit))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", cfg.Profile.Get)
			r.Put("/", cfg.Profile.Update)
			r.Patch("/", cfg.Profile.Update)

			r.Route("/family", func(r chi.Router) {
				r.Get("/", cfg.Profile.ListFamily)
				r.Post("/", cfg.Profile.CreateFamilyMember)
				r.Put("/{memberID}", cfg.Profile.UpdateFamilyMember)
				r.Patch("/{memberID}", cfg.Profile.UpdateFamilyMember)
				r.Delete("/{memberID}", cfg.Profile.DeleteFamilyMember)
			})

			r.Get("/orders", cfg.Profile.ListOrders)

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", cfg.Profile.ListSubscriptions)
				r.Put("/{subscriptionID}", cfg.Profile.UpdateSubscription)
				r.Patch("/{subscriptionID}", cfg.Profile.UpdateSubscription)
			})
		})

		r.Route("/header", func(r chi.Router) {
			r.Get("/loyalty-points", cfg.Header.LoyaltyPoints)
			r.Get("/rewards", cfg.Header.Rewards)
			r.Get("/tip-of-the-day", cfg.Header.TipOfTheDay)
			r.Get("/next-event", cfg.Header.NextEvent)
		})

		r.Get("/sustainability", cfg.Header.Sustainability)
	})

	// 404 and 405 handlers
	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}
