// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"

	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// Service errors.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotFound         = errors.New("not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrInvalidField     = errors.New("invalid field")
	ErrEmailTaken       = errors.New("email already in use")
	ErrStorage          = errors.New("storage unavailable")
)

// Entity labels used in metrics and logs.
const (
	entityAccount      = "account"
	entityDependent    = "dependent"
	entitySubscription = "subscription"
)

// prepareError maps a patch.Prepare failure to a service error.
func prepareError(err error) error {
	switch {
	case errors.Is(err, patch.ErrNoFieldsToUpdate):
		return ErrNoFieldsToUpdate
	case errors.Is(err, patch.ErrInvalidValue):
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	default:
		return err
	}
}

// storeError maps a repository failure to a service error.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrConstraintViolation), errors.Is(err, patch.ErrInvalidValue):
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
