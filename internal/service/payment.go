package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/billing"
	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
	"github.com/RaymondSalim/hms-sub002/internal/storage"
)

type paymentService struct {
	txManager   repository.TxManager
	paymentRepo repository.PaymentRepository
	billRepo    repository.BillRepository
	bookingRepo repository.BookingRepository
	storage     storage.ObjectStorage
	now         Clock
}

func NewPaymentService(
	txManager repository.TxManager,
	paymentRepo repository.PaymentRepository,
	billRepo repository.BillRepository,
	bookingRepo repository.BookingRepository,
	store storage.ObjectStorage,
) PaymentService {
	return &paymentService{
		txManager:   txManager,
		paymentRepo: paymentRepo,
		billRepo:    billRepo,
		bookingRepo: bookingRepo,
		storage:     store,
		now:         time.Now,
	}
}

// SubmitPayment records a payment and spreads it over the booking's
// outstanding bills, oldest due date first. The proof file is stored before
// the database transaction opens. The payment must settle the outstanding
// bills to exactly zero; any residual aborts the whole transaction with a
// *domain.ReconciliationMismatchError and nothing is written.
func (s *paymentService) SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.SubmitPayment", "bookingID", req.BookingID, "amount", req.Amount)

	if err := req.Validate(); err != nil {
		logger.ExitMethodWithError("paymentService.SubmitPayment", err)
		return nil, err
	}
	if _, err := s.bookingRepo.GetByID(ctx, s.txManager.DB(), req.BookingID); err != nil {
		logger.ExitMethodWithError("paymentService.SubmitPayment", err, "bookingID", req.BookingID)
		return nil, err
	}

	var proofRef *string
	if req.Proof != nil {
		key := storage.PaymentProofKey(req.BookingID, req.Proof.Filename)
		ref, err := s.storage.PutObject(ctx, key, req.Proof.Data, req.Proof.ContentType)
		if err != nil {
			err = fmt.Errorf("%w: %w", domain.ErrStorage, err)
			logger.ExitMethodWithError("paymentService.SubmitPayment", err, "bookingID", req.BookingID)
			return nil, err
		}
		proofRef = &ref
	}

	payment := &domain.Payment{
		BookingID:   req.BookingID,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate,
		ProofRef:    proofRef,
		Status:      req.Status,
	}

	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		bills, err := s.billRepo.ListOutstandingForUpdate(ctx, tx, payment.BookingID, s.now())
		if err != nil {
			return fmt.Errorf("failed to load outstanding bills: %w", err)
		}

		result := billing.Allocate(payment.Amount, bills)
		if !result.Balance.IsZero() {
			return &domain.ReconciliationMismatchError{BookingID: payment.BookingID, Balance: result.Balance}
		}

		billIDs := make([]int32, 0, len(result.Updates))
		for _, u := range result.Updates {
			if err := s.billRepo.UpdatePaidAmount(ctx, tx, u.BillID, u.NewPaidAmount); err != nil {
				return fmt.Errorf("failed to update bill %d: %w", u.BillID, err)
			}
			alloc := &domain.PaymentBill{PaymentID: payment.ID, BillID: u.BillID, Amount: u.Applied}
			if err := s.paymentRepo.CreateAllocation(ctx, tx, alloc); err != nil {
				return fmt.Errorf("failed to record allocation for bill %d: %w", u.BillID, err)
			}
			billIDs = append(billIDs, u.BillID)
		}

		return s.billRepo.SyncSettlement(ctx, tx, billIDs, payment.PaymentDate)
	})
	if err != nil {
		if proofRef != nil {
			if delErr := s.storage.DeleteObject(context.WithoutCancel(ctx), *proofRef); delErr != nil {
				logger.Warn("Failed to remove orphaned payment proof", "ref", *proofRef, "error", delErr)
			}
		}
		logger.ExitMethodWithError("paymentService.SubmitPayment", err, "bookingID", req.BookingID)
		return nil, err
	}

	logger.ExitMethod("paymentService.SubmitPayment", "paymentID", payment.ID, "bookingID", payment.BookingID)
	return payment, nil
}

// UpdatePayment edits the stored payment only. Bill balances and allocation
// rows written at submission are not recomputed.
func (s *paymentService) UpdatePayment(ctx context.Context, id int32, req UpdatePaymentRequest) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.UpdatePayment", "paymentID", id)

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, domain.NewValidationError("amount", "must be positive")
		}
		if err := domain.CheckMoneyScale("amount", *req.Amount); err != nil {
			return nil, err
		}
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, domain.NewValidationError("status", "unknown payment status")
	}
	if req.PaymentDate != nil && req.PaymentDate.IsZero() {
		return nil, domain.NewValidationError("payment_date", "must not be empty")
	}

	var payment *domain.Payment
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		payment, err = s.paymentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Amount != nil {
			payment.Amount = *req.Amount
		}
		if req.PaymentDate != nil {
			payment.PaymentDate = *req.PaymentDate
		}
		if req.Status != nil {
			payment.Status = *req.Status
		}
		return s.paymentRepo.Update(ctx, tx, payment)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.UpdatePayment", err, "paymentID", id)
		return nil, err
	}

	logger.ExitMethod("paymentService.UpdatePayment", "paymentID", id)
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id int32) (*domain.Payment, []domain.PaymentBill, error) {
	payment, err := s.paymentRepo.GetByID(ctx, s.txManager.DB(), id)
	if err != nil {
		return nil, nil, err
	}
	allocs, err := s.paymentRepo.ListAllocations(ctx, s.txManager.DB(), id)
	if err != nil {
		return nil, nil, err
	}
	return payment, allocs, nil
}

func (s *paymentService) ListPaymentsByBooking(ctx context.Context, bookingID int32) ([]domain.Payment, error) {
	return s.paymentRepo.ListByBooking(ctx, s.txManager.DB(), bookingID)
}

func (s *paymentService) GetPaymentProof(ctx context.Context, id int32) ([]byte, string, error) {
	payment, err := s.paymentRepo.GetByID(ctx, s.txManager.DB(), id)
	if err != nil {
		return nil, "", err
	}
	if payment.ProofRef == nil {
		return nil, "", fmt.Errorf("payment %d has no proof: %w", id, storage.ErrObjectNotFound)
	}

	data, err := s.storage.GetObject(ctx, *payment.ProofRef)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return data, *payment.ProofRef, nil
}
