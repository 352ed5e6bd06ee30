package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/premiumbutcher/profile-api/internal/handler/dto"
)

const dependentNotFound = "Family member not found"

// ListFamily handles GET /api/profile/family.
func (h *ProfileHandler) ListFamily(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListDependents(r.Context(), accountID(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, dependentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(members))
}

// CreateFamilyMember handles POST /api/profile/family.
func (h *ProfileHandler) CreateFamilyMember(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	member, err := h.svc.CreateDependent(r.Context(), accountID(r), req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, dependentNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// UpdateFamilyMember handles PUT and PATCH /api/profile/family/{memberID}.
func (h *ProfileHandler) UpdateFamilyMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Family member ID is required")
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	member, err := h.svc.UpdateDependent(r.Context(), accountID(r), id, req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, dependentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// DeleteFamilyMember handles DELETE /api/profile/family/{memberID}.
func (h *ProfileHandler) DeleteFamilyMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memberID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Family member ID is required")
		return
	}

	member, err := h.svc.DeleteDependent(r.Context(), accountID(r), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, dependentNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteDependentResponse{
		Message: "Family member deleted",
		Member:  member,
	})
}
