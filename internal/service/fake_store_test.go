package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// memoryStore is an in-memory AccountStore and ProfileStore. Hooks let
// tests inject the errors a concurrent writer would cause.
type memoryStore struct {
	mu         sync.Mutex
	seq        int
	accounts   map[string]*model.Account
	dependents map[string]*model.Dependent

	// onCreate runs before CreateAccount; a non-nil error is returned as is.
	onCreate func(in repository.NewAccount) error
	// onLink runs before LinkExternalRef.
	onLink func(email, ref string) error
	// lookupErr is returned by every lookup when set.
	lookupErr error

	creates, links, updates int
	lastPlan                *patch.Plan
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts:   make(map[string]*model.Account),
		dependents: make(map[string]*model.Dependent),
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

// addAccount inserts an account directly, bypassing hooks.
func (m *memoryStore) addAccount(ref, email string) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := &model.Account{ID: m.nextID("acc"), Email: email}
	if ref != "" {
		a.FirebaseUID = &ref
	}
	m.accounts[a.ID] = a
	return a
}

func (m *memoryStore) addDependent(accountID, name string) *model.Dependent {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := &model.Dependent{ID: m.nextID("dep"), CustomerID: accountID, Name: name}
	m.dependents[d.ID] = d
	return d
}

func (m *memoryStore) GetAccountByExternalRef(ctx context.Context, ref string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, a := range m.accounts {
		if a.HasExternalRef(ref) {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if a := m.byEmail(email); a != nil {
		return clone(a), nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryStore) byEmail(email string) *model.Account {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func (m *memoryStore) LinkExternalRef(ctx context.Context, email, ref string, now time.Time) (*model.Account, error) {
	if m.onLink != nil {
		if err := m.onLink(email, ref); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.links++
	a := m.byEmail(email)
	if a == nil {
		return nil, repository.ErrNotFound
	}
	for _, other := range m.accounts {
		if other != a && other.HasExternalRef(ref) {
			return nil, repository.ErrAccountConflict
		}
	}
	a.FirebaseUID = &ref
	a.UpdatedAt = now
	return clone(a), nil
}

func (m *memoryStore) CreateAccount(ctx context.Context, in repository.NewAccount, now time.Time) (*model.Account, error) {
	if m.onCreate != nil {
		if err := m.onCreate(in); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	for _, a := range m.accounts {
		if a.HasExternalRef(in.ExternalRef) || strings.EqualFold(a.Email, in.Email) {
			return nil, repository.ErrAccountConflict
		}
	}
	ref := in.ExternalRef
	a := &model.Account{
		ID:          m.nextID("acc"),
		FirebaseUID: &ref,
		Email:       in.Email,
		MemberSince: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Name != "" {
		name := in.Name
		a.Name = &name
	}
	m.accounts[a.ID] = a
	return clone(a), nil
}

func (m *memoryStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(a), nil
}

func (m *memoryStore) UpdateAccount(ctx context.Context, accountID string, plan *patch.Plan, now time.Time) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates++
	m.lastPlan = plan
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, set := range plan.Set {
		switch set.Column {
		case "email":
			email := set.Value.(string)
			if other := m.byEmail(email); other != nil && other != a {
				return nil, repository.ErrEmailTaken
			}
			a.Email = email
		case "name":
			a.Name = stringPtr(set.Value)
		}
	}
	a.UpdatedAt = now
	return clone(a), nil
}

func (m *memoryStore) ListDependents(ctx context.Context, accountID string) ([]*model.Dependent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*model.Dependent{}
	for _, d := range m.dependents {
		if d.CustomerID == accountID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateDependent(ctx context.Context, accountID string, plan *patch.Plan, now time.Time) (*model.Dependent, error) {
	if _, err := plan.InsertStatement(accountID, "pending", now); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d := &model.Dependent{ID: m.nextID("dep"), CustomerID: accountID, CreatedAt: now, UpdatedAt: now}
	applyDependent(d, plan)
	m.dependents[d.ID] = d
	c := *d
	return &c, nil
}

func (m *memoryStore) UpdateDependent(ctx context.Context, accountID, dependentID string, plan *patch.Plan, now time.Time) (*model.Dependent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates++
	m.lastPlan = plan
	d, ok := m.dependents[dependentID]
	if !ok || d.CustomerID != accountID {
		return nil, repository.ErrNotFound
	}
	applyDependent(d, plan)
	d.UpdatedAt = now
	c := *d
	return &c, nil
}

func (m *memoryStore) DeleteDependent(ctx context.Context, accountID, dependentID string) (*model.Dependent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.dependents[dependentID]
	if !ok || d.CustomerID != accountID {
		return nil, repository.ErrNotFound
	}
	delete(m.dependents, dependentID)
	return d, nil
}

func (m *memoryStore) ListSubscriptions(ctx context.Context, accountID string) ([]*model.Subscription, error) {
	return []*model.Subscription{}, nil
}

func (m *memoryStore) UpdateSubscription(ctx context.Context, accountID, subscriptionID string, plan *patch.Plan, now time.Time) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates++
	m.lastPlan = plan
	return nil, repository.ErrNotFound
}

func (m *memoryStore) ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*model.Order, error) {
	return []*model.Order{{ID: fmt.Sprintf("limit=%d offset=%d", limit, offset), CustomerID: accountID}}, nil
}

func applyDependent(d *model.Dependent, plan *patch.Plan) {
	for _, set := range plan.Set {
		switch set.Column {
		case "name":
			d.Name = set.Value.(string)
		case "relationship":
			d.Relationship = stringPtr(set.Value)
		case "age":
			if n, ok := set.Value.(int64); ok {
				age := int(n)
				d.Age = &age
			} else {
				d.Age = nil
			}
		case "dietary_requirements":
			d.DietaryRequirements = set.Value.([]string)
		}
	}
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func clone(a *model.Account) *model.Account {
	c := *a
	return &c
}
