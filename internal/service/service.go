package service

import (
	"context"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error)
	ScheduleEndOfStay(ctx context.Context, bookingID int32, endDate time.Time) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int32) (*domain.Booking, error)
}

type BillService interface {
	GetBill(ctx context.Context, id int32) (*domain.Bill, error)
	ListBillsByBooking(ctx context.Context, bookingID int32) ([]domain.Bill, error)
	ListOutstandingBills(ctx context.Context, bookingID int32) ([]domain.Bill, error)
	AddBillItem(ctx context.Context, billID int32, description string, amount domain.Money) (*domain.Bill, error)
	UpdateBillItem(ctx context.Context, itemID int32, description string, amount domain.Money) (*domain.Bill, error)
	DeleteBillItem(ctx context.Context, itemID int32) (*domain.Bill, error)

	// GenerateNextBill creates the next periodic bill of a rolling booking in
	// its own transaction. It returns nil when no bill is due yet.
	GenerateNextBill(ctx context.Context, bookingID int32, asOf time.Time) (*domain.Bill, error)
	GenerateNextBillTx(ctx context.Context, tx repository.DBTX, booking *domain.Booking, asOf time.Time) (*domain.Bill, error)
}

type PaymentService interface {
	SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, id int32, req UpdatePaymentRequest) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int32) (*domain.Payment, []domain.PaymentBill, error)
	ListPaymentsByBooking(ctx context.Context, bookingID int32) ([]domain.Payment, error)
	GetPaymentProof(ctx context.Context, id int32) ([]byte, string, error) // returns data, ref
}

type DepositService interface {
	CreateDeposit(ctx context.Context, bookingID int32, amount domain.Money) (*domain.Deposit, error)
	CreateDepositTx(ctx context.Context, tx repository.DBTX, bookingID int32, amount domain.Money) (*domain.Deposit, error)
	GetDeposit(ctx context.Context, id int32) (*domain.Deposit, error)
	UpdateDeposit(ctx context.Context, id int32, amount domain.Money) (*domain.Deposit, error)
	UpdateDepositStatus(ctx context.Context, id int32, status domain.DepositStatus, refundedAmount *domain.Money) (*domain.Deposit, error)
	DeleteDeposit(ctx context.Context, id int32) error
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, txn *domain.Transaction) error
	CreateTransactionTx(ctx context.Context, tx repository.DBTX, txn *domain.Transaction) error
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	FinancialSummary(ctx context.Context, locationID int32, from, to time.Time) (*domain.FinancialSummary, error)
}

type MailService interface {
	SendMail(ctx context.Context, to, toName, subject, body string) error
}

// CreateBookingRequest carries a new booking, its add-ons and an optional
// deposit to register alongside the first bill.
type CreateBookingRequest struct {
	Booking       domain.Booking
	DepositAmount *domain.Money
}

// ProofFile is an uploaded payment proof.
type ProofFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SubmitPaymentRequest struct {
	BookingID   int32
	Amount      domain.Money
	PaymentDate time.Time
	Status      domain.PaymentStatus
	Proof       *ProofFile
}

func (r *SubmitPaymentRequest) Validate() error {
	if r.BookingID <= 0 {
		return domain.NewValidationError("booking_id", "is required")
	}
	if !r.Amount.IsPositive() {
		return domain.NewValidationError("amount", "must be positive")
	}
	if err := domain.CheckMoneyScale("amount", r.Amount); err != nil {
		return err
	}
	if r.PaymentDate.IsZero() {
		return domain.NewValidationError("payment_date", "is required")
	}
	if r.Status == "" {
		r.Status = domain.PaymentStatusCompleted
	}
	if !r.Status.Valid() {
		return domain.NewValidationError("status", "unknown payment status")
	}
	if r.Proof != nil && len(r.Proof.Data) == 0 {
		return domain.NewValidationError("proof", "file is empty")
	}
	return nil
}

// UpdatePaymentRequest edits payment fields. Nil fields are left unchanged.
type UpdatePaymentRequest struct {
	Amount      *domain.Money
	PaymentDate *time.Time
	Status      *domain.PaymentStatus
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time
