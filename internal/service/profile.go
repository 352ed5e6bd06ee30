package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// Order listing bounds.
const (
	DefaultOrderLimit = 10
	MaxOrderLimit     = 100
)

// ProfileStore is the storage behind the owner-scoped profile operations.
type ProfileStore interface {
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	UpdateAccount(ctx context.Context, accountID string, plan *patch.Plan, now time.Time) (*model.Account, error)

	ListDependents(ctx context.Context, accountID string) ([]*model.Dependent, error)
	CreateDependent(ctx context.Context, accountID string, plan *patch.Plan, now time.Time) (*model.Dependent, error)
	UpdateDependent(ctx context.Context, accountID, dependentID string, plan *patch.Plan, now time.Time) (*model.Dependent, error)
	DeleteDependent(ctx context.Context, accountID, dependentID string) (*model.Dependent, error)

	ListSubscriptions(ctx context.Context, accountID string) ([]*model.Subscription, error)
	UpdateSubscription(ctx context.Context, accountID, subscriptionID string, plan *patch.Plan, now time.Time) (*model.Subscription, error)

	ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*model.Order, error)
}

// ProfileService handles the caller's own profile, household, subscriptions
// and orders. Every operation takes the resolved account key and never
// reaches rows owned by another account.
type ProfileService struct {
	store   ProfileStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store ProfileStore, logger *slog.Logger, recorder metrics.Recorder) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		store:   store,
		logger:  logger,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetProfile returns the caller's account.
func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, storeError("get profile", err)
	}
	return account, nil
}

// UpdateProfile applies a partial update to the caller's account.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, req patch.Request) (*model.Account, error) {
	plan, err := s.prepare(ctx, entityAccount, repository.AccountSchema, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	account, err := s.store.UpdateAccount(ctx, accountID, plan, s.now())
	s.metrics.ObserveUpdateDuration(time.Since(start))
	if err != nil {
		return nil, s.rejectUpdate(entityAccount, storeError("update profile", err))
	}

	s.metrics.IncUpdateApplied(entityAccount)
	return account, nil
}

// prepare filters a request against a schema. Nothing is read or written
// when the result is empty or invalid.
func (s *ProfileService) prepare(ctx context.Context, entity string, schema *patch.Schema, req patch.Request) (*patch.Plan, error) {
	plan, err := patch.Prepare(schema, req)
	if err != nil {
		return nil, s.rejectUpdate(entity, prepareError(err))
	}

	if len(plan.Stripped) > 0 || len(plan.Ignored) > 0 {
		s.logger.DebugContext(ctx, "update_fields_dropped",
			"entity", entity,
			"stripped", plan.Stripped,
			"ignored", plan.Ignored,
		)
	}

	return plan, nil
}

func (s *ProfileService) rejectUpdate(entity string, err error) error {
	switch {
	case errors.Is(err, ErrNoFieldsToUpdate):
		s.metrics.IncUpdateRejected(entity, metrics.ReasonNoFields)
	case errors.Is(err, ErrInvalidField):
		s.metrics.IncUpdateRejected(entity, metrics.ReasonInvalid)
	case errors.Is(err, ErrNotFound):
		s.metrics.IncUpdateRejected(entity, metrics.ReasonNotFound)
	case errors.Is(err, ErrEmailTaken):
		s.metrics.IncUpdateRejected(entity, metrics.ReasonConflict)
	}
	return err
}

// ListOrders returns a page of the caller's orders. A non-positive limit
// selects the default and the limit is capped. Negative offsets are treated
// as zero.
func (s *ProfileService) ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*model.Order, error) {
	limit, offset = clampPage(limit, offset)
	orders, err := s.store.ListOrders(ctx, accountID, limit, offset)
	if err != nil {
		return nil, storeError("list orders", err)
	}
	return orders, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultOrderLimit
	}
	if limit > MaxOrderLimit {
		limit = MaxOrderLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
