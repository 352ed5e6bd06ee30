package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/premiumbutcher/profile-api/internal/auth"
	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/service"
)

// retryAfterSeconds is sent with 503 responses caused by storage failures.
const retryAfterSeconds = "1"

// AccountResolver maps a verified identity to the caller's account.
type AccountResolver interface {
	Resolve(ctx context.Context, id *identity.Identity) (*model.Account, error)
}

// PrincipalCache stores resolved principals under a token fingerprint.
type PrincipalCache interface {
	GetPrincipal(ctx context.Context, fingerprint string) (*model.Principal, error)
	SetPrincipal(ctx context.Context, fingerprint string, p *model.Principal, ttl time.Duration, expiresAt time.Time) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier identity.Verifier
	Resolver AccountResolver
	// Cache is optional. A nil cache verifies every request with the provider.
	Cache    PrincipalCache
	CacheTTL time.Duration
	Metrics  metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It verifies the bearer token, resolves the caller's account and injects
// the principal into the request context.
//
// The token itself is never logged; only its fingerprint is used as a
// cache key.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			fingerprint := auth.Fingerprint(token)

			if cfg.Cache != nil {
				p, err := cfg.Cache.GetPrincipal(ctx, fingerprint)
				if err != nil {
					cfg.Logger.Warn("principal cache unavailable",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(ctx)),
					)
				}
				if p != nil {
					cfg.Metrics.IncPrincipalCacheHit()
					annotateAccount(ctx, p.AccountID)
					next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(ctx, p)))
					return
				}
				cfg.Metrics.IncPrincipalCacheMiss()
			}

			id, err := cfg.Verifier.Verify(ctx, token)
			if err != nil {
				if errors.Is(err, identity.ErrUnauthenticated) {
					logAuthFailure(cfg.Logger, r, "invalid_token")
					writeAuthError(w)
					return
				}
				cfg.Logger.Warn("identity verification interrupted",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeUnavailable(w)
				return
			}

			account, err := cfg.Resolver.Resolve(ctx, id)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					logAuthFailure(cfg.Logger, r, "incomplete_identity")
					writeAuthError(w)
					return
				}
				cfg.Logger.Error("account resolution failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeUnavailable(w)
				return
			}

			p := &model.Principal{
				AccountID:   account.ID,
				ExternalRef: id.ExternalRef,
				Email:       account.Email,
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.SetPrincipal(ctx, fingerprint, p, cfg.CacheTTL, id.ExpiresAt); err != nil {
					cfg.Logger.Warn("principal cache write failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(ctx)),
					)
				}
			}

			annotateAccount(ctx, p.AccountID)
			cfg.Logger.Debug("authentication successful",
				slog.String("account_id", p.AccountID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(ctx)),
			)

			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(ctx, p)))
		})
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", getClientIP(r)),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing bearer token")
}

// writeUnavailable writes a 503 response for transient backend failures.
func writeUnavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", retryAfterSeconds)
	writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
}
