//go:build integration

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/repository"
	"github.com/premiumbutcher/profile-api/internal/testutil"
)

func newIntegrationRepo(t *testing.T) (context.Context, *pgxpool.Pool, *repository.Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	return ctx, pool, repository.NewFromPool(pool)
}

func TestIntegrationResolve_ConcurrentFirstLogin(t *testing.T) {
	ctx, pool, repo := newIntegrationRepo(t)

	rec := metrics.NewInMemory()
	r := NewAccountResolver(repo, discardLogger(), rec)
	id := testutil.NewTestIdentity(t, "first")

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc, err := r.Resolve(ctx, id)
			errs[i] = err
			if acc != nil {
				ids[i] = acc.ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: Resolve failed: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d resolved %s, want %s", i, ids[i], ids[0])
		}
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE firebase_uid = $1`, id.ExternalRef).Scan(&count); err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 1 {
		t.Errorf("accounts for identity = %d, want 1", count)
	}
	if rec.Snapshot().Resolutions[metrics.OutcomeCreated] != 1 {
		t.Errorf("resolutions = %v", rec.Snapshot().Resolutions)
	}
}

func TestIntegrationResolve_RelinkKeepsAccount(t *testing.T) {
	ctx, pool, repo := newIntegrationRepo(t)

	existingID := testutil.InsertAccount(ctx, t, pool, "ext-old", "relink@example.com")
	r := NewAccountResolver(repo, discardLogger(), metrics.NewNoop())

	acc, err := r.Resolve(ctx, &identity.Identity{ExternalRef: "ext-new", Email: "Relink@Example.com"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if acc.ID != existingID || !acc.HasExternalRef("ext-new") {
		t.Errorf("unexpected account: %+v", acc)
	}
}

func TestIntegrationProfile_NoFieldsLeavesRowUntouched(t *testing.T) {
	ctx, pool, repo := newIntegrationRepo(t)

	id := testutil.InsertAccount(ctx, t, pool, "ext-1", "x@example.com")
	before, err := repo.GetAccountByID(ctx, id)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}

	svc := NewProfileService(repo, discardLogger(), metrics.NewNoop())
	if _, err := svc.UpdateProfile(ctx, id, patch.Request{"loyalty_points": 500, "shoe_size": 44}); !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Fatalf("expected ErrNoFieldsToUpdate, got %v", err)
	}

	after, err := repo.GetAccountByID(ctx, id)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.LoyaltyPoints != before.LoyaltyPoints {
		t.Errorf("row changed: %+v -> %+v", before, after)
	}
}
