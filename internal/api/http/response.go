package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/security"
	"github.com/RaymondSalim/hms-sub002/internal/storage"

	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Balance *domain.Money     `json:"balance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps service errors onto HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, domain.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, security.ErrExpiredToken), errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrWrongTokenType), errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrDepositNotFound),
		errors.Is(err, domain.ErrBillNotFound), errors.Is(err, domain.ErrBillItemNotFound),
		errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrDuplicateBillPeriod):
		return http.StatusConflict, "DUPLICATE_BILL_PERIOD"
	case errors.Is(err, domain.ErrReconciliationMismatch):
		return http.StatusUnprocessableEntity, "RECONCILIATION_MISMATCH"
	case errors.Is(err, domain.ErrTransactionTimeout):
		return http.StatusGatewayTimeout, "TRANSACTION_TIMEOUT"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, "STORAGE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	body := errorBody{Code: code, Message: err.Error()}

	var verr *domain.ValidationError
	var verrs validator.ValidationErrors
	var mismatch *domain.ReconciliationMismatchError
	switch {
	case errors.As(err, &verr):
		body.Field = verr.Field
	case errors.As(err, &verrs):
		body.Message = "request validation failed"
		body.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Fields[fe.Field()] = fe.Tag()
		}
	case errors.As(err, &mismatch):
		b := mismatch.Balance
		body.Balance = &b
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		if status == http.StatusInternalServerError && code == "INTERNAL" {
			body.Message = "internal server error"
		}
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}
