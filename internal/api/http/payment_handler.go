package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/service"
)

// SubmitPayment accepts a multipart form with amount, payment_date, an
// optional status and an optional "proof" file.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBytes+maxJSONBody)
	if err := r.ParseMultipartForm(h.limits.MaxBytes); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err))
		return
	}

	req := service.SubmitPaymentRequest{
		BookingID: bookingID,
		Status:    domain.PaymentStatus(r.FormValue("status")),
	}
	if req.Amount, err = parseMoney("amount", r.FormValue("amount")); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PaymentDate, err = parseDate("payment_date", r.FormValue("payment_date")); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Proof, err = h.readProof(r); err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := h.svc.Payment.SubmitPayment(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Payment submitted", "paymentID", payment.ID, "bookingID", bookingID)
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) readProof(r *http.Request) (*service.ProofFile, error) {
	file, header, err := r.FormFile("proof")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: proof: %v", errBadRequest, err)
	}
	defer file.Close()

	if header.Size > h.limits.MaxBytes {
		return nil, domain.NewValidationError("proof", fmt.Sprintf("file exceeds %d bytes", h.limits.MaxBytes))
	}
	data, err := io.ReadAll(io.LimitReader(file, h.limits.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: proof: %v", errBadRequest, err)
	}
	if int64(len(data)) > h.limits.MaxBytes {
		return nil, domain.NewValidationError("proof", fmt.Sprintf("file exceeds %d bytes", h.limits.MaxBytes))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !h.allowedType(contentType) {
		return nil, domain.NewValidationError("proof", fmt.Sprintf("content type %q is not allowed", contentType))
	}

	return &service.ProofFile{
		Filename:    path.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (h *Handler) allowedType(contentType string) bool {
	if len(h.limits.AllowedTypes) == 0 {
		return true
	}
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, t := range h.limits.AllowedTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payment, allocations, err := h.svc.Payment.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if allocations == nil {
		allocations = []domain.PaymentBill{}
	}
	writeJSON(w, http.StatusOK, paymentResponse{Payment: payment, Allocations: allocations})
}

func (h *Handler) ListBookingPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := h.svc.Payment.ListPaymentsByBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

// UpdatePayment edits payment fields. It never reallocates the payment.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	upd := service.UpdatePaymentRequest{Amount: req.Amount}
	if req.PaymentDate != nil {
		d, err := parseDate("payment_date", *req.PaymentDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd.PaymentDate = &d
	}
	if req.Status != nil {
		s := domain.PaymentStatus(*req.Status)
		upd.Status = &s
	}

	payment, err := h.svc.Payment.UpdatePayment(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) GetPaymentProof(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, ref, err := h.svc.Payment.GetPaymentProof(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(ref)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Warn("Failed to write payment proof", "paymentID", id, "error", err)
	}
}
