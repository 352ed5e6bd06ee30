package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/migrations"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every table and reapplies the embedded up migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := DropSchema(ctx, pool); err != nil {
		return err
	}

	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list up migrations: %w", err)
	}
	slices.Sort(ups)

	for _, name := range ups {
		if err := execFile(ctx, pool, name); err != nil {
			return err
		}
	}

	return nil
}

// DropSchema removes every table, including schema_migrations.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	if err != nil {
		return fmt.Errorf("list down migrations: %w", err)
	}
	slices.Sort(downs)
	slices.Reverse(downs)

	for _, name := range downs {
		if err := execFile(ctx, pool, name); err != nil {
			return err
		}
	}
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}
	return nil
}

func execFile(ctx context.Context, pool *pgxpool.Pool, name string) error {
	body, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(body)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// UniqueEmail generates a unique, mixed-case email address.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s.%d@Example.com", prefix, seq.Add(1)+time.Now().UnixNano())
}

// NewTestIdentity returns a verified identity with a fresh external ref and email.
func NewTestIdentity(t testing.TB, name string) *identity.Identity {
	t.Helper()
	return &identity.Identity{
		ExternalRef: UniqueID("ext"),
		Email:       strings.ToLower(UniqueEmail(name)),
		DisplayName: name,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

// InsertAccount inserts a bare account row and returns its id. ref may be
// empty for an account that has never been linked.
func InsertAccount(ctx context.Context, t testing.TB, pool *pgxpool.Pool, ref, email string) string {
	t.Helper()
	id := ulid.Make().String()
	var refArg any
	if ref != "" {
		refArg = ref
	}
	_, err := pool.Exec(ctx,
		`INSERT INTO customers (id, firebase_uid, email) VALUES ($1, $2, $3)`,
		id, refArg, email,
	)
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return id
}

// InsertDependent inserts a household member and returns its id.
func InsertDependent(ctx context.Context, t testing.TB, pool *pgxpool.Pool, accountID, name string) string {
	t.Helper()
	id := ulid.Make().String()
	_, err := pool.Exec(ctx,
		`INSERT INTO family_members (id, customer_id, name) VALUES ($1, $2, $3)`,
		id, accountID, name,
	)
	if err != nil {
		t.Fatalf("insert dependent: %v", err)
	}
	return id
}
