package http

import (
	"net/http"

	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/service"
)

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.svc.Booking.CreateBooking(r.Context(), service.CreateBookingRequest{
		Booking:       booking,
		DepositAmount: req.Deposit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Booking created", "bookingID", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.svc.Booking.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) ScheduleEndOfStay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req endOfStayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.svc.Booking.ScheduleEndOfStay(r.Context(), id, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
