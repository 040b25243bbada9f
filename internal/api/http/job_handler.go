package http

import (
	"errors"
	"net/http"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

// RunRecurringBilling runs the recurring billing job on demand. Per-booking
// failures do not fail the request; they are listed in the report.
func (h *Handler) RunRecurringBilling(w http.ResponseWriter, r *http.Request) {
	var req recurringBillingRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	asOf := utils.DateOnly(h.now())
	if req.AsOf != "" {
		d, err := parseDate("as_of", req.AsOf)
		if err != nil {
			writeError(w, r, err)
			return
		}
		asOf = d
	}

	report, err := h.svc.BillingJob.GenerateRecurringBills(r.Context(), asOf)
	var batch *domain.BatchError
	if err != nil && !errors.As(err, &batch) {
		writeError(w, r, err)
		return
	}
	if report != nil {
		logger.InfoContext(r.Context(), "Recurring billing triggered", "asOf", asOf.Format("2006-01-02"),
			"processed", report.Processed, "failed", report.Failed)
	}
	writeJSON(w, http.StatusOK, report)
}
