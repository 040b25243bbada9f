package http

import (
	"github.com/RaymondSalim/hms-sub002/internal/domain"
)

type durationDTO struct {
	Unit  string `json:"unit" validate:"required,oneof=DAY MONTH"`
	Count int32  `json:"count" validate:"required,gt=0"`
}

type bookingAddonDTO struct {
	AddonID   int32  `json:"addon_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type createBookingRequest struct {
	RoomID    int32             `json:"room_id" validate:"required,gt=0"`
	TenantID  int32             `json:"tenant_id" validate:"required,gt=0"`
	StartDate string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	IsRolling bool              `json:"is_rolling"`
	Duration  *durationDTO      `json:"duration" validate:"required_if=IsRolling false,excluded_if=IsRolling true"`
	Fee       domain.Money      `json:"fee"`
	Status    string            `json:"status" validate:"omitempty,oneof=UPCOMING ACTIVE"`
	Addons    []bookingAddonDTO `json:"addons" validate:"dive"`
	Deposit   *domain.Money     `json:"deposit,omitempty"`
}

func (req *createBookingRequest) toDomain() (domain.Booking, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return domain.Booking{}, err
	}
	b := domain.Booking{
		RoomID:    req.RoomID,
		TenantID:  req.TenantID,
		StartDate: start,
		IsRolling: req.IsRolling,
		Fee:       req.Fee,
		Status:    domain.BookingStatus(req.Status),
	}
	if b.Status == "" {
		b.Status = domain.BookingStatusActive
	}
	if req.Duration != nil {
		b.Duration = &domain.BookingDuration{Unit: domain.DurationUnit(req.Duration.Unit), Count: req.Duration.Count}
	}
	for _, a := range req.Addons {
		addon := domain.BookingAddon{AddonID: a.AddonID}
		if a.StartDate != "" {
			if addon.StartDate, err = parseDate("addons.start_date", a.StartDate); err != nil {
				return domain.Booking{}, err
			}
		}
		if addon.EndDate, err = parseOptionalDate("addons.end_date", a.EndDate); err != nil {
			return domain.Booking{}, err
		}
		b.Addons = append(b.Addons, addon)
	}
	return b, nil
}

type endOfStayRequest struct {
	EndDate string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type billItemRequest struct {
	Description string       `json:"description" validate:"required,max=255"`
	Amount      domain.Money `json:"amount"`
}

type updatePaymentRequest struct {
	Amount      *domain.Money `json:"amount,omitempty"`
	PaymentDate *string       `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status      *string       `json:"status,omitempty" validate:"omitempty,oneof=PENDING COMPLETED FAILED"`
}

type paymentResponse struct {
	*domain.Payment
	Allocations []domain.PaymentBill `json:"allocations"`
}

type createDepositRequest struct {
	BookingID int32        `json:"booking_id" validate:"required,gt=0"`
	Amount    domain.Money `json:"amount"`
}

type updateDepositRequest struct {
	Amount domain.Money `json:"amount"`
}

type depositStatusRequest struct {
	Status         string        `json:"status" validate:"required,oneof=UNPAID HELD APPLIED REFUNDED PARTIALLY_REFUNDED FORFEITED"`
	RefundedAmount *domain.Money `json:"refunded_amount,omitempty"`
}

type relatedDTO struct {
	Kind string `json:"kind" validate:"required,oneof=BOOKING DEPOSIT PAYMENT BOOKING_ADDON"`
	ID   int32  `json:"id" validate:"required,gt=0"`
}

type createTransactionRequest struct {
	LocationID  int32        `json:"location_id" validate:"required,gt=0"`
	Amount      domain.Money `json:"amount"`
	Type        string       `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Category    string       `json:"category" validate:"required,max=100"`
	Description string       `json:"description" validate:"max=500"`
	Date        string       `json:"date" validate:"required,datetime=2006-01-02"`
	Related     *relatedDTO  `json:"related,omitempty"`
}

func (req *createTransactionRequest) toDomain() (*domain.Transaction, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	txn := &domain.Transaction{
		LocationID:  req.LocationID,
		Amount:      req.Amount,
		Type:        domain.TransactionType(req.Type),
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	}
	if req.Related != nil {
		txn.Related = &domain.RelatedRef{Kind: domain.RelatedKind(req.Related.Kind), ID: req.Related.ID}
	}
	return txn, nil
}

type recurringBillingRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}
