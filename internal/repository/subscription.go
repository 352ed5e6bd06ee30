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

// NewSubscription holds the shop-assigned values of a subscription box.
type NewSubscription struct {
	PlanID               string
	PlanName             string
	Frequency            string
	PreferredDeliveryDay *string
	NextDeliveryDate     *string
}

// ListSubscriptions returns the account's subscriptions, oldest first.
func (r *Repository) ListSubscriptions(ctx context.Context, accountID string) ([]*model.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE customer_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}

// CreateSubscription inserts an active subscription. Subscriptions are
// created by the shop, not through the customer API.
func (r *Repository) CreateSubscription(ctx context.Context, accountID string, in NewSubscription, now time.Time) (*model.Subscription, error) {
	query := `
		INSERT INTO subscriptions (id, customer_id, plan_id, plan_name, frequency, preferred_delivery_day,
			status, next_delivery_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9, $9)
		RETURNING ` + subscriptionColumns

	s, err := scanSubscription(r.pool.QueryRow(ctx, query,
		ulid.Make().String(),
		accountID,
		in.PlanID,
		in.PlanName,
		in.Frequency,
		in.PreferredDeliveryDay,
		model.SubscriptionActive,
		in.NextDeliveryDate,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return s, nil
}

// UpdateSubscription applies a plan to one of the account's subscriptions.
func (r *Repository) UpdateSubscription(ctx context.Context, accountID, subscriptionID string, plan *patch.Plan, now time.Time) (*model.Subscription, error) {
	var s *model.Subscription
	scope := patch.Scope{OwnerID: accountID, RowID: subscriptionID}
	err := r.applyPatch(ctx, plan, scope, now, func(row pgx.Row) error {
		var err error
		s, err = scanSubscription(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID, &s.CustomerID, &s.PlanID, &s.PlanName, &s.Frequency, &s.PreferredDeliveryDay,
		&s.Status, &s.NextDeliveryDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
