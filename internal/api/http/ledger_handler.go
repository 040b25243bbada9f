package http

import (
	"net/http"
	"strconv"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	txn, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Transaction.CreateTransaction(r.Context(), txn); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.TransactionFilter
	var err error

	if raw := q.Get("location_id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 32)
		if perr != nil || id <= 0 {
			writeError(w, r, domain.NewValidationError("location_id", "must be a positive integer"))
			return
		}
		filter.LocationID = int32(id)
	}
	if raw := q.Get("type"); raw != "" {
		filter.Type = domain.TransactionType(raw)
		if !filter.Type.Valid() {
			writeError(w, r, domain.NewValidationError("type", "must be INCOME or EXPENSE"))
			return
		}
	}
	if filter.From, err = parseOptionalDate("from", q.Get("from")); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = parseOptionalDate("to", q.Get("to")); err != nil {
		writeError(w, r, err)
		return
	}

	txns, err := h.svc.Transaction.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}

// FinancialSummary reports income, expense and net for one location over
// [from, to]. The range defaults to the current month.
func (h *Handler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locationID, err := strconv.ParseInt(q.Get("location_id"), 10, 32)
	if err != nil || locationID <= 0 {
		writeError(w, r, domain.NewValidationError("location_id", "must be a positive integer"))
		return
	}

	today := utils.DateOnly(h.now())
	from := today.AddDate(0, 0, 1-today.Day())
	to := from.AddDate(0, 1, -1)
	if raw := q.Get("from"); raw != "" {
		if from, err = parseDate("from", raw); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = parseDate("to", raw); err != nil {
			writeError(w, r, err)
			return
		}
	}

	summary, err := h.svc.Transaction.FinancialSummary(r.Context(), int32(locationID), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
