// Package main is the entrypoint for the profile API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/premiumbutcher/profile-api/internal/cache"
	"github.com/premiumbutcher/profile-api/internal/config"
	"github.com/premiumbutcher/profile-api/internal/handler"
	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/middleware"
	"github.com/premiumbutcher/profile-api/internal/repository"
	"github.com/premiumbutcher/profile-api/internal/server"
	"github.com/premiumbutcher/profile-api/internal/service"
)

// errIdentityNotConfigured is returned for every token when the identity
// provider could not be initialized. The auth middleware answers 503.
var errIdentityNotConfigured = errors.New("identity provider not configured")

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.WithPoolSize(cfg.DBMaxConns, cfg.DBMinConns))
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		applied, err := repo.Migrate(ctx)
		if err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			os.Exit(1)
		}
		logger.Info("migrations applied", "count", len(applied), "versions", applied)
	}

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.WithPoolSize(cfg.RedisPoolSize, 0))
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	verifier, identityReady := initVerifier(ctx, cfg, logger)
	if !identityReady && cfg.IsProduction() {
		logger.Error("identity provider is required in production")
		_ = cacheClient.Close()
		repo.Close()
		os.Exit(1)
	}

	// Initialize services
	recorder := metrics.NewInMemory()
	resolver := service.NewAccountResolver(repo, logger, recorder)
	profileService := service.NewProfileService(repo, logger, recorder)
	headerService := service.NewHeaderService(repo)

	var principals middleware.PrincipalCache
	if cfg.PrincipalCacheTTL > 0 {
		principals = cacheClient
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Logger:  logger,
		Root:    handler.New(),
		Health:  handler.NewHealthHandler(repo, cacheClient, identityReady, logger),
		Metrics: handler.NewMetricsHandler(recorder),
		Profile: handler.NewProfileHandler(profileService, logger),
		Header:  handler.NewHeaderHandler(headerService, logger),
		Auth: middleware.AuthConfig{
			Logger:   logger,
			Verifier: verifier,
			Resolver: resolver,
			Cache:    principals,
			CacheTTL: cfg.PrincipalCacheTTL,
			Metrics:  recorder,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:               logger,
			Limiter:              cacheClient,
			Metrics:              recorder,
			AccountEnabled:       cfg.RateLimitAPIEnabled,
			AccountRatePerMinute: cfg.RateLimitAPIRPM,
			AccountBurst:         cfg.RateLimitAPIBurst,
			IPEnabled:            cfg.RateLimitIPEnabled,
			IPRatePerSecond:      cfg.RateLimitIPRPS,
			IPBurst:              cfg.RateLimitIPBurst,
		},
		CORS:               corsCfg,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment(), HSTSMaxAge: cfg.HSTSMaxAge},
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Closed in reverse order: cache first, database last.
	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("cache", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"identity", identityReady,
		"principal_cache_ttl", cfg.PrincipalCacheTTL.String(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initVerifier builds the Firebase verifier. On failure it returns a
// verifier that refuses every token, so the API answers 503 while the
// health endpoints keep serving.
func initVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (identity.Verifier, bool) {
	v, err := identity.NewFirebaseVerifier(ctx, identity.FirebaseConfig{
		ProjectID:   cfg.FirebaseProjectID,
		ClientEmail: cfg.FirebaseClientEmail,
		PrivateKey:  cfg.FirebasePrivateKey,
	})
	if err != nil {
		logger.Warn("identity provider unavailable",
			slog.String("error", sanitizeError(err, cfg.FirebasePrivateKey)),
			slog.String("project_id", cfg.FirebaseProjectID),
		)
		return identity.VerifierFunc(func(ctx context.Context, token string) (*identity.Identity, error) {
			return nil, errIdentityNotConfigured
		}), false
	}

	logger.Info("identity provider initialized", "project_id", cfg.FirebaseProjectID)
	return v, true
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes connection secrets from an error message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" || redacted == secret {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
