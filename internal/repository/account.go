package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
)

// NewAccount holds the values used to provision an account on first login.
type NewAccount struct {
	ExternalRef string
	Email       string
	Name        string
	PictureURL  string
}

// GetAccountByID retrieves an account by its internal key.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM customers WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return account, nil
}

// GetAccountByExternalRef retrieves the account linked to an external identity.
func (r *Repository) GetAccountByExternalRef(ctx context.Context, ref string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM customers WHERE firebase_uid = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by external ref: %w", err)
	}

	return account, nil
}

// GetAccountByEmail retrieves an account by email, ignoring case.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM customers WHERE LOWER(email) = LOWER($1)`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// LinkExternalRef attaches an external identity to the account holding email,
// replacing any previous reference. It returns ErrNotFound if no account has
// that email and ErrAccountConflict if the reference is already attached to
// another account.
func (r *Repository) LinkExternalRef(ctx context.Context, email, ref string, now time.Time) (*model.Account, error) {
	query := `
		UPDATE customers
		SET firebase_uid = $1, updated_at = $3
		WHERE LOWER(email) = LOWER($2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, ref, email, now))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrAccountConflict
		}
		return nil, fmt.Errorf("failed to link external ref: %w", err)
	}

	return account, nil
}

// CreateAccount inserts a new account. It returns ErrAccountConflict when the
// external reference or email is already taken.
func (r *Repository) CreateAccount(ctx context.Context, in NewAccount, now time.Time) (*model.Account, error) {
	query := `
		INSERT INTO customers (id, firebase_uid, email, name, profile_photo_url, member_since, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $6)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query,
		ulid.Make().String(),
		in.ExternalRef,
		in.Email,
		nullIfEmpty(in.Name),
		nullIfEmpty(in.PictureURL),
		now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountConflict
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// UpdateAccount applies a prepared plan to the account. A plan that changes
// the email to one held by another account returns ErrEmailTaken.
func (r *Repository) UpdateAccount(ctx context.Context, accountID string, plan *patch.Plan, now time.Time) (*model.Account, error) {
	var account *model.Account
	err := r.applyPatch(ctx, plan, patch.Scope{OwnerID: accountID}, now, func(row pgx.Row) error {
		var err error
		account, err = scanAccount(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetLoyaltyPoints returns the account's point balance.
func (r *Repository) GetLoyaltyPoints(ctx context.Context, accountID string) (int, error) {
	var points int
	err := r.pool.QueryRow(ctx, `SELECT loyalty_points FROM customers WHERE id = $1`, accountID).Scan(&points)
	if err != nil {
		if isNoRows(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to get loyalty points: %w", err)
	}
	return points, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.FirebaseUID, &a.Email,
		&a.Name, &a.Phone, &a.DateOfBirth, &a.Language, &a.ProfilePhotoURL,
		&a.Street, &a.PostalCode, &a.City, &a.Country,
		&a.FavoriteMeatTypes, &a.PreferredCuts, &a.CookingPreference, &a.HouseholdSize,
		&a.WeeklyMeatConsumption, &a.OrganicOnly, &a.GrassFedPreference, &a.LocalSourcing,
		&a.CookingSkillLevel, &a.FavoriteCuisines, &a.CookingEquipment,
		&a.DeliveryFrequency, &a.PreferredDeliveryDay,
		&a.EmailNotifications, &a.SMSNotifications, &a.Newsletter, &a.RecipeEmails,
		&a.LoyaltyPoints, &a.MembershipTier, &a.LifetimeValueCents,
		&a.MemberSince, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
