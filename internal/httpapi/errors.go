package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/bookcart/internal/domain"
)

type httpError struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details map[string]interface{}) {
	e := httpError{}
	e.Error.Code = code
	e.Error.Message = msg
	e.Error.Details = details
	writeJSON(w, status, e)
}

// writeDomainError переводит доменную ошибку в HTTP-статус и код.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		reasons := domain.ValidationReasons(err)
		codes := make([]string, 0, len(reasons))
		for _, r := range reasons {
			codes = append(codes, string(r))
		}
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), map[string]interface{}{"reasons": codes})
	case errors.Is(err, domain.ErrListingTitleRequired),
		errors.Is(err, domain.ErrListingAuthorRequired),
		errors.Is(err, domain.ErrListingPriceNegative):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_LISTING", err.Error(), nil)
	case errors.Is(err, domain.ErrCannotCheckoutEmpty):
		writeError(w, http.StatusConflict, "CANNOT_CHECKOUT_EMPTY", err.Error(), nil)
	case errors.Is(err, domain.ErrAlreadySubmitting):
		writeError(w, http.StatusConflict, "ALREADY_SUBMITTING", err.Error(), nil)
	case errors.Is(err, domain.ErrSessionCompleted):
		writeError(w, http.StatusConflict, "SESSION_COMPLETED", err.Error(), nil)
	case errors.Is(err, domain.ErrSessionNotEditable):
		writeError(w, http.StatusConflict, "SESSION_NOT_EDITABLE", err.Error(), nil)
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrLineItemNotFound),
		errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrCatalogItemNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, "PAYMENT_DECLINED", err.Error(), map[string]interface{}{"retryable": true})
	case errors.Is(err, domain.ErrPaymentTimeout):
		writeError(w, http.StatusGatewayTimeout, "PAYMENT_TIMEOUT", err.Error(), map[string]interface{}{"retryable": true})
	case errors.Is(err, domain.ErrPaymentTemporary), errors.Is(err, domain.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "PAYMENT_UNAVAILABLE", err.Error(), map[string]interface{}{"retryable": true})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		writeError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
