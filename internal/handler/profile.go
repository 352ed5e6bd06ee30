package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
)

// ProfileService is the business logic behind the /api/profile routes.
// *service.ProfileService implements it.
type ProfileService interface {
	GetProfile(ctx context.Context, accountID string) (*model.Account, error)
	UpdateProfile(ctx context.Context, accountID string, req patch.Request) (*model.Account, error)

	ListDependents(ctx context.Context, accountID string) ([]*model.Dependent, error)
	CreateDependent(ctx context.Context, accountID string, req patch.Request) (*model.Dependent, error)
	UpdateDependent(ctx context.Context, accountID, dependentID string, req patch.Request) (*model.Dependent, error)
	DeleteDependent(ctx context.Context, accountID, dependentID string) (*model.Dependent, error)

	ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*model.Order, error)

	ListSubscriptions(ctx context.Context, accountID string) ([]*model.Subscription, error)
	UpdateSubscription(ctx context.Context, accountID, subscriptionID string, req patch.Request) (*model.Subscription, error)
}

// ProfileHandler handles HTTP requests for the caller's own records.
type ProfileHandler struct {
	svc    ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetProfile(r.Context(), accountID(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Update handles PUT and PATCH /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	account, err := h.svc.UpdateProfile(r.Context(), accountID(r), req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Profile not found")
		return
	}

	h.logger.Info("profile_updated", "account_id", account.ID)
	writeJSON(w, http.StatusOK, account)
}

// ListOrders handles GET /api/profile/orders?limit=&offset=.
// Unparseable paging values fall back to the defaults.
func (h *ProfileHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	orders, err := h.svc.ListOrders(r.Context(), accountID(r), limit, offset)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Orders not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

// ListSubscriptions handles GET /api/profile/subscriptions.
func (h *ProfileHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListSubscriptions(r.Context(), accountID(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Subscriptions not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(subs))
}

// UpdateSubscription handles PUT and PATCH
// /api/profile/subscriptions/{subscriptionID}.
func (h *ProfileHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subscriptionID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Subscription ID is required")
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	sub, err := h.svc.UpdateSubscription(r.Context(), accountID(r), id, req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Subscription not found")
		return
	}

	h.logger.Info("subscription_updated",
		"account_id", sub.CustomerID,
		"subscription_id", sub.ID,
		"status", sub.Status,
	)
	writeJSON(w, http.StatusOK, sub)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
