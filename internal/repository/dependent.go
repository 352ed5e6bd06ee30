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

// ListDependents returns the account's household members, oldest first.
func (r *Repository) ListDependents(ctx context.Context, accountID string) ([]*model.Dependent, error) {
	query := `
		SELECT ` + dependentColumns + `
		FROM family_members
		WHERE customer_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependents: %w", err)
	}
	defer rows.Close()

	dependents := []*model.Dependent{}
	for rows.Next() {
		d, err := scanDependent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dependent: %w", err)
		}
		dependents = append(dependents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependents: %w", err)
	}

	return dependents, nil
}

// CreateDependent inserts a household member for the account from a
// prepared plan.
func (r *Repository) CreateDependent(ctx context.Context, accountID string, plan *patch.Plan, now time.Time) (*model.Dependent, error) {
	stmt, err := plan.InsertStatement(accountID, ulid.Make().String(), now)
	if err != nil {
		return nil, err
	}

	d, err := scanDependent(r.pool.QueryRow(ctx, stmt.SQL, stmt.Args...))
	if err != nil {
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrConstraintViolation, constraintName(err))
		}
		return nil, fmt.Errorf("failed to create dependent: %w", err)
	}

	return d, nil
}

// UpdateDependent applies a plan to one of the account's household members.
func (r *Repository) UpdateDependent(ctx context.Context, accountID, dependentID string, plan *patch.Plan, now time.Time) (*model.Dependent, error) {
	var d *model.Dependent
	scope := patch.Scope{OwnerID: accountID, RowID: dependentID}
	err := r.applyPatch(ctx, plan, scope, now, func(row pgx.Row) error {
		var err error
		d, err = scanDependent(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDependent removes one of the account's household members and
// returns it.
func (r *Repository) DeleteDependent(ctx context.Context, accountID, dependentID string) (*model.Dependent, error) {
	stmt, err := DependentSchema.DeleteStatement(patch.Scope{OwnerID: accountID, RowID: dependentID})
	if err != nil {
		return nil, err
	}

	d, err := scanDependent(r.pool.QueryRow(ctx, stmt.SQL, stmt.Args...))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete dependent: %w", err)
	}

	return d, nil
}

func scanDependent(row pgx.Row) (*model.Dependent, error) {
	var d model.Dependent
	err := row.Scan(
		&d.ID, &d.CustomerID, &d.Name, &d.Relationship, &d.Gender, &d.Age,
		&d.DietaryRequirements, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
