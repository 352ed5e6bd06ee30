package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/premiumbutcher/profile-api/internal/identity"
	"github.com/premiumbutcher/profile-api/internal/metrics"
	"github.com/premiumbutcher/profile-api/internal/middleware"
	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
)

const (
	testToken     = "token-ext-1"
	testAccountID = "acc-1"
)

// fakeProfileService records the last call and returns canned values.
type fakeProfileService struct {
	mu sync.Mutex

	err        error
	account    *model.Account
	dependent  *model.Dependent
	dependents []*model.Dependent
	orders     []*model.Order
	subs       []*model.Subscription
	sub        *model.Subscription

	gotAccountID string
	gotID        string
	gotReq       patch.Request
	gotLimit     int
	gotOffset    int
}

func (f *fakeProfileService) record(accountID, id string, req patch.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotAccountID = accountID
	f.gotID = id
	f.gotReq = req
}

func (f *fakeProfileService) GetProfile(ctx context.Context, accountID string) (*model.Account, error) {
	f.record(accountID, "", nil)
	return f.account, f.err
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, accountID string, req patch.Request) (*model.Account, error) {
	f.record(accountID, "", req)
	return f.account, f.err
}

func (f *fakeProfileService) ListDependents(ctx context.Context, accountID string) ([]*model.Dependent, error) {
	f.record(accountID, "", nil)
	return f.dependents, f.err
}

func (f *fakeProfileService) CreateDependent(ctx context.Context, accountID string, req patch.Request) (*model.Dependent, error) {
	f.record(accountID, "", req)
	return f.dependent, f.err
}

func (f *fakeProfileService) UpdateDependent(ctx context.Context, accountID, dependentID string, req patch.Request) (*model.Dependent, error) {
	f.record(accountID, dependentID, req)
	return f.dependent, f.err
}

func (f *fakeProfileService) DeleteDependent(ctx context.Context, accountID, dependentID string) (*model.Dependent, error) {
	f.record(accountID, dependentID, nil)
	return f.dependent, f.err
}

func (f *fakeProfileService) ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*model.Order, error) {
	f.record(accountID, "", nil)
	f.mu.Lock()
	f.gotLimit, f.gotOffset = limit, offset
	f.mu.Unlock()
	return f.orders, f.err
}

func (f *fakeProfileService) ListSubscriptions(ctx context.Context, accountID string) ([]*model.Subscription, error) {
	f.record(accountID, "", nil)
	return f.subs, f.err
}

func (f *fakeProfileService) UpdateSubscription(ctx context.Context, accountID, subscriptionID string, req patch.Request) (*model.Subscription, error) {
	f.record(accountID, subscriptionID, req)
	return f.sub, f.err
}

type fakeHeaderService struct {
	err     error
	points  int
	rewards []*model.Reward
	tip     *model.Tip
	event   *model.Event
	impact  *model.SustainabilityImpact
}

func (f *fakeHeaderService) LoyaltyPoints(ctx context.Context, accountID string) (int, error) {
	return f.points, f.err
}

func (f *fakeHeaderService) Rewards(ctx context.Context) ([]*model.Reward, error) {
	return f.rewards, f.err
}

func (f *fakeHeaderService) TipOfTheDay(ctx context.Context) (*model.Tip, error) {
	return f.tip, f.err
}

func (f *fakeHeaderService) NextEvent(ctx context.Context) (*model.Event, error) {
	return f.event, f.err
}

func (f *fakeHeaderService) Sustainability(ctx context.Context, accountID string) (*model.SustainabilityImpact, error) {
	return f.impact, f.err
}

type resolverFunc func(ctx context.Context, id *identity.Identity) (*model.Account, error)

func (f resolverFunc) Resolve(ctx context.Context, id *identity.Identity) (*model.Account, error) {
	return f(ctx, id)
}

// newTestRouter builds the full router. testToken authenticates as
// testAccountID; every other token is rejected.
func newTestRouter(t *testing.T, profile ProfileService, header HeaderService) http.Handler {
	t.Helper()

	logger := discardLogger()
	verifier := identity.VerifierFunc(func(ctx context.Context, token string) (*identity.Identity, error) {
		if token != testToken {
			return nil, identity.ErrUnauthenticated
		}
		return &identity.Identity{ExternalRef: "ext-1", Email: "x@example.com"}, nil
	})
	resolver := resolverFunc(func(ctx context.Context, id *identity.Identity) (*model.Account, error) {
		return &model.Account{ID: testAccountID, Email: id.Email}, nil
	})

	return NewRouter(RouterConfig{
		Logger:  logger,
		Root:    New(),
		Health:  NewHealthHandler(&mockHealthChecker{}, &mockHealthChecker{}, true, logger),
		Metrics: NewMetricsHandler(metrics.NewInMemory()),
		Profile: NewProfileHandler(profile, logger),
		Header:  NewHeaderHandler(header, logger),
		Auth: middleware.AuthConfig{
			Logger:   logger,
			Verifier: verifier,
			Resolver: resolver,
		},
		RateLimit: middleware.RateLimitConfig{Logger: logger},
		CORS:      middleware.DefaultCORSConfig(),
	})
}

// serve sends an authenticated request through the router.
func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeProfileService{}, &fakeHeaderService{})

	tests := []struct {
		method, path string
		wantCode     int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestRouter_APIRequiresAuth(t *testing.T) {
	t.Parallel()

	svc := &fakeProfileService{account: &model.Account{ID: testAccountID}}
	router := newTestRouter(t, svc, &fakeHeaderService{})

	paths := []string{
		"/api/profile",
		"/api/profile/family",
		"/api/profile/orders",
		"/api/profile/subscriptions",
		"/api/header/loyalty-points",
		"/api/sustainability",
	}

	for _, path := range paths {
		for _, authz := range []string{"", "Bearer wrong-token", "Basic " + testToken} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if authz != "" {
				req.Header.Set("Authorization", authz)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s with %q: expected 401, got %d", path, authz, rec.Code)
			}
		}
	}

	if svc.gotAccountID != "" {
		t.Errorf("service reached without authentication: %q", svc.gotAccountID)
	}
}
