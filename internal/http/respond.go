package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/lock"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Available *int   `json:"available,omitempty"`
	Reference string `json:"reference,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps domain error kinds to HTTP responses. Order matters: a reconciliation error
// wraps its cause, and a failed direct order wraps NotFound or InsufficientStock.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		recon *domain.ReconciliationError
		ise   *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &recon):
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     "payment received but the order could not be completed; support will follow up",
			Code:      "reconciliation_required",
			Reference: recon.CaseID,
		})
	case errors.As(err, &ise):
		available := ise.Available
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:     ise.Error(),
			Code:      "insufficient_stock",
			Available: &available,
		})
	case errors.Is(err, domain.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, "invalid_signature", domain.ErrInvalidSignature.Error())
	case errors.Is(err, domain.ErrPaymentAlreadyProcessed):
		respondError(w, http.StatusConflict, "already_processed", domain.ErrPaymentAlreadyProcessed.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", domain.ErrEmptyCart.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", notFoundMessage(err))
	case errors.Is(err, domain.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, lock.ErrLockTimeout):
		respondError(w, http.StatusConflict, "busy", "another request for this account is in progress")
	case errors.Is(err, domain.ErrGatewayUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", domain.ErrGatewayUnavailable.Error())
	case errors.Is(err, domain.ErrGatewayError):
		respondError(w, http.StatusBadGateway, "gateway_error", "payment gateway error")
	case errors.Is(err, domain.ErrOrderCreationFailed):
		slog.ErrorContext(r.Context(), "order creation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "order_creation_failed", domain.ErrOrderCreationFailed.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// The driver detail of a wrapped ErrNotFound is never shown, only the entity.
func notFoundMessage(err error) string {
	for _, known := range []error{
		domain.ErrProductNotFound, domain.ErrVariantNotFound, domain.ErrCartNotFound,
		domain.ErrCartItemNotFound, domain.ErrWishlistNotFound, domain.ErrOrderNotFound,
		domain.ErrUserNotFound, domain.ErrPaymentNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return domain.ErrNotFound.Error()
}
