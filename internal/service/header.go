package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// HeaderRewardLimit is the number of rewards shown in the header.
const HeaderRewardLimit = 5

// HeaderStore is the storage behind the header blocks.
type HeaderStore interface {
	GetLoyaltyPoints(ctx context.Context, accountID string) (int, error)
	ListAvailableRewards(ctx context.Context, limit int) ([]*model.Reward, error)
	RandomActiveTip(ctx context.Context) (*model.Tip, error)
	NextActiveEvent(ctx context.Context) (*model.Event, error)
	GetSustainabilityImpact(ctx context.Context, accountID string) (*model.SustainabilityImpact, error)
}

// HeaderService serves the page header blocks and sustainability figures.
// Missing rows fall back to fixed defaults rather than errors.
type HeaderService struct {
	store HeaderStore
}

// NewHeaderService creates a new HeaderService.
func NewHeaderService(store HeaderStore) *HeaderService {
	return &HeaderService{store: store}
}

// LoyaltyPoints returns the caller's point balance, or zero.
func (s *HeaderService) LoyaltyPoints(ctx context.Context, accountID string) (int, error) {
	points, err := s.store.GetLoyaltyPoints(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get loyalty points: %w", err)
	}
	return points, nil
}

// Rewards returns the cheapest available rewards.
func (s *HeaderService) Rewards(ctx context.Context) ([]*model.Reward, error) {
	rewards, err := s.store.ListAvailableRewards(ctx, HeaderRewardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// TipOfTheDay returns a random active tip, or the default tip.
func (s *HeaderService) TipOfTheDay(ctx context.Context) (*model.Tip, error) {
	tip, err := s.store.RandomActiveTip(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		def := model.DefaultTip
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tip: %w", err)
	}
	return tip, nil
}

// NextEvent returns the next upcoming event, or the default event.
func (s *HeaderService) NextEvent(ctx context.Context) (*model.Event, error) {
	ev, err := s.store.NextActiveEvent(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		def := model.DefaultEvent
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next event: %w", err)
	}
	return ev, nil
}

// Sustainability returns the caller's impact figures, or zeros.
func (s *HeaderService) Sustainability(ctx context.Context, accountID string) (*model.SustainabilityImpact, error) {
	impact, err := s.store.GetSustainabilityImpact(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.SustainabilityImpact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sustainability impact: %w", err)
	}
	return impact, nil
}
