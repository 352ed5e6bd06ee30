package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// AccountStore is the storage the resolver needs.
type AccountStore interface {
	GetAccountByExternalRef(ctx context.Context, ref string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	LinkExternalRef(ctx context.Context, email, ref string, now time.Time) (*model.Account, error)
	CreateAccount(ctx context.Context, in repository.NewAccount, now time.Time) (*model.Account, error)
}

// maxResolveAttempts bounds restarts after a lost race with a concurrent
// first login.
const maxResolveAttempts = 2

var errRetry = errors.New("resolution lost a race")

// AccountResolver maps a verified identity to exactly one persisted account,
// provisioning it on first sight.
type AccountResolver struct {
	store   AccountStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewAccountResolver creates a new AccountResolver.
func NewAccountResolver(store AccountStore, logger *slog.Logger, recorder metrics.Recorder) *AccountResolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountResolver{
		store:   store,
		logger:  logger,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Resolve returns the account for id. An account already linked to the
// identity is returned as is. Otherwise an account with the same email
// (ignoring case) is linked to the identity, or a new account is created.
//
// Unique constraints decide concurrent first logins: the loser restarts the
// resolution once and then finds the winner's row.
func (r *AccountResolver) Resolve(ctx context.Context, id *identity.Identity) (*model.Account, error) {
	if id == nil || id.ExternalRef == "" || strings.TrimSpace(id.Email) == "" {
		return nil, ErrUnauthenticated
	}

	var lastErr error
	for attempt := 1; attempt <= maxResolveAttempts; attempt++ {
		account, outcome, err := r.resolveOnce(ctx, id)
		if err == nil {
			r.metrics.IncResolution(outcome)
			if outcome != metrics.OutcomeExisting {
				r.logger.Info("account_resolved",
					"outcome", outcome,
					"account_id", account.ID,
					"attempt", attempt,
				)
			}
			return account, nil
		}

		lastErr = err
		if !errors.Is(err, errRetry) {
			break
		}
		r.logger.Warn("account_resolution_retry", "attempt", attempt, "error", err)
	}

	r.metrics.IncResolution(metrics.OutcomeFailed)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, fmt.Errorf("%w: resolve account: %w", ErrStorage, lastErr)
}

func (r *AccountResolver) resolveOnce(ctx context.Context, id *identity.Identity) (*model.Account, string, error) {
	account, err := r.store.GetAccountByExternalRef(ctx, id.ExternalRef)
	if err == nil {
		return account, metrics.OutcomeExisting, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	_, err = r.store.GetAccountByEmail(ctx, id.Email)
	switch {
	case err == nil:
		account, err = r.store.LinkExternalRef(ctx, id.Email, id.ExternalRef, r.now())
		switch {
		case err == nil:
			return account, metrics.OutcomeLinked, nil
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrAccountConflict):
			return nil, "", fmt.Errorf("%w: link: %w", errRetry, err)
		default:
			return nil, "", err
		}

	case errors.Is(err, repository.ErrNotFound):
		account, err = r.store.CreateAccount(ctx, repository.NewAccount{
			ExternalRef: id.ExternalRef,
			Email:       id.Email,
			Name:        id.DisplayName,
			PictureURL:  id.PictureURL,
		}, r.now())
		switch {
		case err == nil:
			return account, metrics.OutcomeCreated, nil
		case errors.Is(err, repository.ErrAccountConflict):
			return nil, "", fmt.Errorf("%w: create: %w", errRetry, err)
		default:
			return nil, "", err
		}

	default:
		return nil, "", err
	}
}
