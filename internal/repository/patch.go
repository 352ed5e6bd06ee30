package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/premiumbutcher/profile-api/internal/patch"
)

// applyPatch runs a plan inside one transaction. The target row is locked
// first under the same owner scope as the update, so a row that is absent
// or owned by someone else yields ErrNotFound and nothing is written.
func (r *Repository) applyPatch(ctx context.Context, plan *patch.Plan, scope patch.Scope, now time.Time, scan func(pgx.Row) error) error {
	lock, err := plan.Schema().LockStatement(scope)
	if err != nil {
		return err
	}
	update, err := plan.Statement(scope, now)
	if err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var one int
		if err := tx.QueryRow(ctx, lock.SQL, lock.Args...).Scan(&one); err != nil {
			return err
		}
		return scan(tx.QueryRow(ctx, update.SQL, update.Args...))
	})
	if err == nil {
		return nil
	}

	switch {
	case isNoRows(err):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrEmailTaken
	case isConstraintViolation(err):
		return fmt.Errorf("%w: %s", ErrConstraintViolation, constraintName(err))
	default:
		return fmt.Errorf("failed to update %s: %w", plan.Schema().Table, err)
	}
}

func constraintName(err error) string {
	_, name := pgErrorCode(err)
	return name
}
