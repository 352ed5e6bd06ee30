package service

import (
	"context"
	"errors"
	"time"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// ListDependents returns the caller's household members.
func (s *ProfileService) ListDependents(ctx context.Context, accountID string) ([]*model.Dependent, error) {
	dependents, err := s.store.ListDependents(ctx, accountID)
	if err != nil {
		return nil, storeError("list dependents", err)
	}
	return dependents, nil
}

// CreateDependent adds a household member. The request goes through the
// same allow-list as updates, and the owner is always the caller.
func (s *ProfileService) CreateDependent(ctx context.Context, accountID string, req patch.Request) (*model.Dependent, error) {
	plan, err := patch.Prepare(repository.DependentSchema, req)
	if errors.Is(err, patch.ErrNoFieldsToUpdate) {
		// Nothing to create from; report the missing required field.
		err = &patch.InvalidValueError{Field: "name", Reason: "is required"}
	}
	if err != nil {
		return nil, prepareError(err)
	}

	d, err := s.store.CreateDependent(ctx, accountID, plan, s.now())
	if err != nil {
		return nil, storeError("create dependent", err)
	}

	s.metrics.IncDependentCreated()
	s.logger.InfoContext(ctx, "dependent_created", "account_id", accountID, "dependent_id", d.ID)
	return d, nil
}

// UpdateDependent applies a partial update to one of the caller's
// household members.
func (s *ProfileService) UpdateDependent(ctx context.Context, accountID, dependentID string, req patch.Request) (*model.Dependent, error) {
	plan, err := s.prepare(ctx, entityDependent, repository.DependentSchema, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	d, err := s.store.UpdateDependent(ctx, accountID, dependentID, plan, s.now())
	s.metrics.ObserveUpdateDuration(time.Since(start))
	if err != nil {
		return nil, s.rejectUpdate(entityDependent, storeError("update dependent", err))
	}

	s.metrics.IncUpdateApplied(entityDependent)
	return d, nil
}

// DeleteDependent removes one of the caller's household members.
func (s *ProfileService) DeleteDependent(ctx context.Context, accountID, dependentID string) (*model.Dependent, error) {
	d, err := s.store.DeleteDependent(ctx, accountID, dependentID)
	if err != nil {
		return nil, storeError("delete dependent", err)
	}

	s.metrics.IncDependentDeleted()
	s.logger.InfoContext(ctx, "dependent_deleted", "account_id", accountID, "dependent_id", dependentID)
	return d, nil
}
