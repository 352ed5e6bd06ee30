package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/premiumbutcher/profile-api/internal/handler/dto"
	"github.com/premiumbutcher/profile-api/internal/model"
)

// HeaderService provides the header and sustainability blocks.
// *service.HeaderService implements it.
type HeaderService interface {
	LoyaltyPoints(ctx context.Context, accountID string) (int, error)
	Rewards(ctx context.Context) ([]*model.Reward, error)
	TipOfTheDay(ctx context.Context) (*model.Tip, error)
	NextEvent(ctx context.Context) (*model.Event, error)
	Sustainability(ctx context.Context, accountID string) (*model.SustainabilityImpact, error)
}

// HeaderHandler serves the small blocks rendered around the profile page.
type HeaderHandler struct {
	svc    HeaderService
	logger *slog.Logger
}

// NewHeaderHandler creates a new HeaderHandler.
func NewHeaderHandler(svc HeaderService, logger *slog.Logger) *HeaderHandler {
	return &HeaderHandler{svc: svc, logger: logger}
}

// LoyaltyPoints handles GET /api/header/loyalty-points.
func (h *HeaderHandler) LoyaltyPoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.LoyaltyPoints(r.Context(), accountID(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, dto.PointsResponse{Points: points})
}

// Rewards handles GET /api/header/rewards.
func (h *HeaderHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.svc.Rewards(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Rewards not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rewards))
}

// TipOfTheDay handles GET /api/header/tip-of-the-day.
func (h *HeaderHandler) TipOfTheDay(w http.ResponseWriter, r *http.Request) {
	tip, err := h.svc.TipOfTheDay(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Tip not found")
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

// NextEvent handles GET /api/header/next-event.
func (h *HeaderHandler) NextEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.NextEvent(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Sustainability handles GET /api/sustainability.
func (h *HeaderHandler) Sustainability(w http.ResponseWriter, r *http.Request) {
	impact, err := h.svc.Sustainability(r.Context(), accountID(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Sustainability data not found")
		return
	}
	writeJSON(w, http.StatusOK, impact)
}
