package service

import (
	"context"
	"time"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// ListSubscriptions returns the caller's subscriptions.
func (s *ProfileService) ListSubscriptions(ctx context.Context, accountID string) ([]*model.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx, accountID)
	if err != nil {
		return nil, storeError("list subscriptions", err)
	}
	return subs, nil
}

// UpdateSubscription applies a partial update to one of the caller's
// subscriptions.
func (s *ProfileService) UpdateSubscription(ctx context.Context, accountID, subscriptionID string, req patch.Request) (*model.Subscription, error) {
	plan, err := s.prepare(ctx, entitySubscription, repository.SubscriptionSchema, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sub, err := s.store.UpdateSubscription(ctx, accountID, subscriptionID, plan, s.now())
	s.metrics.ObserveUpdateDuration(time.Since(start))
	if err != nil {
		return nil, s.rejectUpdate(entitySubscription, storeError("update subscription", err))
	}

	s.metrics.IncUpdateApplied(entitySubscription)
	return sub, nil
}
