package http

import (
	"net/http"

	"github.com/RaymondSalim/hms-sub002/internal/security"

	"github.com/gorilla/mux"
)

// NewRouter mounts the back-office API under /api/v1. Everything except
// /healthz requires an operator token.
func NewRouter(h *Handler, tm security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware, LoggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(NewAuthMiddleware(tm).Handler)

	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/end-of-stay", h.ScheduleEndOfStay).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/bills", h.ListBookingBills).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/payments", h.SubmitPayment).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payments", h.ListBookingPayments).Methods(http.MethodGet)

	api.HandleFunc("/payments/{id}", h.GetPayment).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", h.UpdatePayment).Methods(http.MethodPatch)
	api.HandleFunc("/payments/{id}/proof", h.GetPaymentProof).Methods(http.MethodGet)

	api.HandleFunc("/bills/{id}", h.GetBill).Methods(http.MethodGet)
	api.HandleFunc("/bills/{id}/items", h.AddBillItem).Methods(http.MethodPost)
	api.HandleFunc("/bill-items/{id}", h.UpdateBillItem).Methods(http.MethodPatch)
	api.HandleFunc("/bill-items/{id}", h.DeleteBillItem).Methods(http.MethodDelete)

	api.HandleFunc("/deposits", h.CreateDeposit).Methods(http.MethodPost)
	api.HandleFunc("/deposits/{id}", h.GetDeposit).Methods(http.MethodGet)
	api.HandleFunc("/deposits/{id}", h.UpdateDeposit).Methods(http.MethodPatch)
	api.HandleFunc("/deposits/{id}", h.DeleteDeposit).Methods(http.MethodDelete)
	api.HandleFunc("/deposits/{id}/status", h.UpdateDepositStatus).Methods(http.MethodPost)

	api.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/reports/financial-summary", h.FinancialSummary).Methods(http.MethodGet)

	api.HandleFunc("/jobs/recurring-billing", h.RunRecurringBilling).Methods(http.MethodPost)

	return r
}
