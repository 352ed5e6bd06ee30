package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(store AccountStore) (*AccountResolver, *metrics.InMemoryRecorder) {
	rec := metrics.NewInMemory()
	return NewAccountResolver(store, discardLogger(), rec), rec
}

func TestResolve_CreatesThenReturnsExisting(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	r, rec := newTestResolver(store)
	id := &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com", DisplayName: "X"}

	first, err := r.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := r.Resolve(context.Background(), id)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("resolution not idempotent: %s != %s", first.ID, second.ID)
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
	if first.Name == nil || *first.Name != "X" {
		t.Errorf("display name not copied: %v", first.Name)
	}

	snap := rec.Snapshot()
	if snap.Resolutions[metrics.OutcomeCreated] != 1 || snap.Resolutions[metrics.OutcomeExisting] != 1 {
		t.Errorf("resolutions = %v", snap.Resolutions)
	}
}

func TestResolve_RelinksByEmail(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	existing := store.addAccount("ext-old", "x@example.com")
	r, rec := newTestResolver(store)

	got, err := r.Resolve(context.Background(), &identity.Identity{ExternalRef: "ext-new", Email: "X@Example.com"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got.ID != existing.ID {
		t.Errorf("expected relink to %s, got %s", existing.ID, got.ID)
	}
	if !got.HasExternalRef("ext-new") {
		t.Errorf("external ref = %v, want ext-new", got.FirebaseUID)
	}
	if store.creates != 0 {
		t.Errorf("relink should not create, creates = %d", store.creates)
	}
	if len(store.accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(store.accounts))
	}
	if rec.Snapshot().Resolutions[metrics.OutcomeLinked] != 1 {
		t.Errorf("resolutions = %v", rec.Snapshot().Resolutions)
	}

	// Subsequent logins find the account by the new reference.
	again, err := r.Resolve(context.Background(), &identity.Identity{ExternalRef: "ext-new", Email: "x@example.com"})
	if err != nil || again.ID != existing.ID {
		t.Fatalf("second Resolve = %v, %v", again, err)
	}
	if store.links != 1 {
		t.Errorf("links = %d, want 1", store.links)
	}
}

func TestResolve_RetriesAfterCreateConflict(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	var once sync.Once
	store.onCreate = func(in repository.NewAccount) error {
		var lost bool
		once.Do(func() {
			// A concurrent first login wins the insert.
			store.addAccount(in.ExternalRef, in.Email)
			lost = true
		})
		if lost {
			return repository.ErrAccountConflict
		}
		return nil
	}
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !got.HasExternalRef("ext-1") {
		t.Errorf("resolved account = %+v", got)
	}
	if len(store.accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(store.accounts))
	}
}

func TestResolve_RetriesAfterLinkRace(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	existing := store.addAccount("", "x@example.com")
	var once sync.Once
	store.onLink = func(email, ref string) error {
		var lost bool
		once.Do(func() {
			// Another request linked the same identity first.
			store.mu.Lock()
			a := store.byEmail(email)
			a.FirebaseUID = &ref
			store.mu.Unlock()
			lost = true
		})
		if lost {
			return repository.ErrAccountConflict
		}
		return nil
	}
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.ID != existing.ID {
		t.Errorf("got %s, want %s", got.ID, existing.ID)
	}
}

func TestResolve_SecondConflictIsStorageError(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.onCreate = func(in repository.NewAccount) error {
		return repository.ErrAccountConflict
	}
	r, rec := newTestResolver(store)

	_, err := r.Resolve(context.Background(), &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if rec.Snapshot().Resolutions[metrics.OutcomeFailed] != 1 {
		t.Errorf("resolutions = %v", rec.Snapshot().Resolutions)
	}
}

func TestResolve_StorageFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.lookupErr = errors.New("connection refused")
	r, _ := newTestResolver(store)

	_, err := r.Resolve(context.Background(), &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if store.creates != 0 {
		t.Errorf("no account should be created on lookup failure")
	}
}

func TestResolve_IncompleteIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   *identity.Identity
	}{
		{"nil", nil},
		{"no ref", &identity.Identity{Email: "x@example.com"}},
		{"no email", &identity.Identity{ExternalRef: "ext-1"}},
		{"blank email", &identity.Identity{ExternalRef: "ext-1", Email: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore()
			r, _ := newTestResolver(store)
			if _, err := r.Resolve(context.Background(), tt.id); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
			if len(store.accounts) != 0 {
				t.Error("no account should be created")
			}
		})
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.lookupErr = context.Canceled
	r, _ := newTestResolver(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
