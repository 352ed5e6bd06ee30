// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/premiumbutcher/profile-api/internal/auth"
	"github.com/premiumbutcher/profile-api/internal/handler/dto"
	"github.com/premiumbutcher/profile-api/internal/patch"
	"github.com/premiumbutcher/profile-api/internal/service"
)

// Version is reported by GET /.
const Version = "1.0.0"

// Handler serves the unauthenticated informational routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Info describes the service.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.InfoResponse{
		Service: "profile-api",
		Version: Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeRequest reads a JSON object body into an update request. Numbers
// are kept as json.Number so integer columns can be range checked exactly.
func decodeRequest(r *http.Request) (patch.Request, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var req patch.Request
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("body must contain a single JSON object")
	}
	return req, nil
}

// writeDecodeError reports a body decodeRequest could not read. Bodies cut
// off by MaxBodySize are 413, everything else is INVALID_JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}

// accountID returns the caller's account, set by the auth middleware.
func accountID(r *http.Request) string {
	return auth.MustPrincipalFromContext(r.Context()).AccountID
}

// handleServiceError maps service errors to HTTP responses. notFound is the
// message used for ErrNotFound, which never says whether the row exists.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound string) {
	var invalidErr *patch.InvalidValueError

	switch {
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		writeError(w, http.StatusBadRequest, "NO_FIELDS_TO_UPDATE", "No fields to update")
	case errors.As(err, &invalidErr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: invalidErr.Error(),
			Code:  "INVALID_FIELD",
			Field: invalidErr.Field,
		})
	case errors.Is(err, service.ErrInvalidField):
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "A field value was rejected")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", notFound)
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already in use")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing bearer token")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the response
		logger.Info("request cancelled",
			"endpoint", r.Method+" "+r.URL.Path,
		)
	case errors.Is(err, service.ErrStorage), errors.Is(err, context.DeadlineExceeded):
		logger.Error("storage unavailable",
			"endpoint", r.Method+" "+r.URL.Path,
			"error", err,
		)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
	default:
		logger.Error("request failed",
			"endpoint", r.Method+" "+r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
