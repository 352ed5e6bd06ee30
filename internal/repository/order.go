package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/premiumbutcher/profile-api/internal/model"
)

// ListOrders returns a page of the account's orders, newest first.
func (r *Repository) ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*model.Order, error) {
	query := `
		SELECT id, customer_id, order_number, order_date, status, item_count, total_cents
		FROM orders
		WHERE customer_id = $1
		ORDER BY order_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.OrderNumber, &o.OrderDate, &o.Status, &o.ItemCount, &o.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// CreateOrder records a placed order. Orders come from the shop system.
func (r *Repository) CreateOrder(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = ulid.Make().String()
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}

	query := `
		INSERT INTO orders (id, customer_id, order_number, order_date, status, item_count, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, o.ID, o.CustomerID, o.OrderNumber, o.OrderDate, o.Status, o.ItemCount, o.TotalCents)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}
