package http

import (
	"context"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/service"
)

// BillingJob triggers an on-demand recurring billing run.
type BillingJob interface {
	GenerateRecurringBills(ctx context.Context, asOf time.Time) (*domain.BillingRunReport, error)
}

type Services struct {
	Booking     service.BookingService
	Bill        service.BillService
	Payment     service.PaymentService
	Deposit     service.DepositService
	Transaction service.TransactionService
	BillingJob  BillingJob
}

// UploadLimits bounds payment proof uploads.
type UploadLimits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Handler serves the back-office REST API.
type Handler struct {
	svc    Services
	limits UploadLimits
	now    func() time.Time
}

func NewHandler(svc Services, limits UploadLimits) *Handler {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = 10 << 20
	}
	return &Handler{svc: svc, limits: limits, now: time.Now}
}
