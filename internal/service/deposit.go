package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

const DepositItemDescription = "Security deposit"

type depositService struct {
	txManager      repository.TxManager
	depositRepo    repository.DepositRepository
	billRepo       repository.BillRepository
	bookingRepo    repository.BookingRepository
	txnSvc         TransactionService
	incomeCategory string
	now            Clock
}

func NewDepositService(
	txManager repository.TxManager,
	depositRepo repository.DepositRepository,
	billRepo repository.BillRepository,
	bookingRepo repository.BookingRepository,
	txnSvc TransactionService,
	incomeCategory string,
) DepositService {
	return &depositService{
		txManager:      txManager,
		depositRepo:    depositRepo,
		billRepo:       billRepo,
		bookingRepo:    bookingRepo,
		txnSvc:         txnSvc,
		incomeCategory: incomeCategory,
		now:            time.Now,
	}
}

func (s *depositService) CreateDeposit(ctx context.Context, bookingID int32, amount domain.Money) (*domain.Deposit, error) {
	var deposit *domain.Deposit
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		deposit, err = s.CreateDepositTx(ctx, tx, bookingID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// CreateDepositTx inserts an UNPAID deposit and mirrors its amount into a
// CREATED item on the booking's first bill.
func (s *depositService) CreateDepositTx(ctx context.Context, tx repository.DBTX, bookingID int32, amount domain.Money) (*domain.Deposit, error) {
	logger.EnterMethod("depositService.CreateDeposit", "bookingID", bookingID, "amount", amount)

	if !amount.IsPositive() {
		err := domain.NewValidationError("amount", "must be positive")
		logger.ExitMethodWithError("depositService.CreateDeposit", err)
		return nil, err
	}
	if err := domain.CheckMoneyScale("amount", amount); err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err)
		return nil, err
	}
	if _, err := s.bookingRepo.GetByID(ctx, tx, bookingID); err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err, "bookingID", bookingID)
		return nil, err
	}

	deposit := &domain.Deposit{
		BookingID: bookingID,
		Amount:    amount,
		Status:    domain.DepositStatusUnpaid,
	}
	if err := s.depositRepo.Create(ctx, tx, deposit); err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err, "bookingID", bookingID)
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	bill, err := s.billRepo.GetFirstByBooking(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			err = fmt.Errorf("booking %d has no bill to carry the deposit: %w", bookingID, err)
		}
		logger.ExitMethodWithError("depositService.CreateDeposit", err, "bookingID", bookingID)
		return nil, err
	}
	if err := s.mirrorOnBill(ctx, tx, bill.ID, deposit); err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err, "depositID", deposit.ID)
		return nil, err
	}

	logger.ExitMethod("depositService.CreateDeposit", "depositID", deposit.ID, "billID", bill.ID)
	return deposit, nil
}

func (s *depositService) mirrorOnBill(ctx context.Context, tx repository.DBTX, billID int32, deposit *domain.Deposit) error {
	item := &domain.BillItem{
		BillID:      billID,
		Description: DepositItemDescription,
		Amount:      deposit.Amount,
		Type:        domain.BillItemTypeCreated,
		Related:     domain.DepositRef(deposit.ID),
	}
	if err := s.billRepo.CreateItem(ctx, tx, item); err != nil {
		return fmt.Errorf("failed to create deposit bill item: %w", err)
	}
	_, err := s.billRepo.RecomputeAmount(ctx, tx, billID)
	return err
}

func (s *depositService) GetDeposit(ctx context.Context, id int32) (*domain.Deposit, error) {
	return s.depositRepo.GetByID(ctx, s.txManager.DB(), id)
}

// UpdateDeposit changes the amount of an unresolved deposit together with its
// mirrored bill item.
func (s *depositService) UpdateDeposit(ctx context.Context, id int32, amount domain.Money) (*domain.Deposit, error) {
	logger.EnterMethod("depositService.UpdateDeposit", "depositID", id, "amount", amount)

	if !amount.IsPositive() {
		err := domain.NewValidationError("amount", "must be positive")
		logger.ExitMethodWithError("depositService.UpdateDeposit", err)
		return nil, err
	}
	if err := domain.CheckMoneyScale("amount", amount); err != nil {
		logger.ExitMethodWithError("depositService.UpdateDeposit", err)
		return nil, err
	}

	var deposit *domain.Deposit
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		deposit, err = s.depositRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if deposit.Status.IsResolved() {
			return &domain.InvalidTransitionError{From: deposit.Status, To: deposit.Status, Reason: "resolved deposits cannot be edited"}
		}

		deposit.Amount = amount
		if err := s.depositRepo.Update(ctx, tx, deposit); err != nil {
			return err
		}

		items, err := s.billRepo.ListItemsByRelated(ctx, tx, *domain.DepositRef(id))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			bill, err := s.billRepo.GetFirstByBooking(ctx, tx, deposit.BookingID)
			if err != nil {
				return err
			}
			return s.mirrorOnBill(ctx, tx, bill.ID, deposit)
		}
		for i := range items {
			items[i].Amount = amount
			if err := s.billRepo.UpdateItem(ctx, tx, &items[i]); err != nil {
				return err
			}
			if _, err := s.billRepo.RecomputeAmount(ctx, tx, items[i].BillID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.UpdateDeposit", err, "depositID", id)
		return nil, err
	}

	logger.ExitMethod("depositService.UpdateDeposit", "depositID", id)
	return deposit, nil
}

// checkDepositTransition validates a status change without touching state.
func checkDepositTransition(d *domain.Deposit, to domain.DepositStatus, refunded *domain.Money) error {
	if !to.Valid() {
		return domain.NewValidationError("status", fmt.Sprintf("unknown deposit status %q", to))
	}
	invalid := func(reason string) error {
		return &domain.InvalidTransitionError{From: d.Status, To: to, Reason: reason}
	}

	if d.Status.IsResolved() {
		return invalid("deposit is already resolved")
	}
	if d.Status == to {
		return invalid("deposit is already in this status")
	}
	switch to {
	case domain.DepositStatusUnpaid:
		return invalid("a held deposit cannot return to unpaid")
	case domain.DepositStatusHeld:
		return nil
	}

	if d.Status != domain.DepositStatusHeld {
		return invalid("only held deposits can be resolved")
	}
	switch to {
	case domain.DepositStatusRefunded:
		if refunded == nil || !refunded.Equal(d.Amount) {
			return invalid(fmt.Sprintf("refunded amount must equal the deposit amount %s", d.Amount))
		}
	case domain.DepositStatusPartiallyRefunded:
		if refunded == nil || !refunded.IsPositive() || !refunded.LessThan(d.Amount) {
			return invalid(fmt.Sprintf("refunded amount must be greater than 0 and less than %s", d.Amount))
		}
	}
	return nil
}

// UpdateDepositStatus moves the deposit along UNPAID -> HELD -> resolution.
// APPLIED recognises the full amount as income and PARTIALLY_REFUNDED the
// retained part; both happen in the same transaction as the status change.
func (s *depositService) UpdateDepositStatus(ctx context.Context, id int32, status domain.DepositStatus, refundedAmount *domain.Money) (*domain.Deposit, error) {
	logger.EnterMethod("depositService.UpdateDepositStatus", "depositID", id, "status", status)

	if refundedAmount != nil {
		if err := domain.CheckMoneyScale("refunded_amount", *refundedAmount); err != nil {
			logger.ExitMethodWithError("depositService.UpdateDepositStatus", err)
			return nil, err
		}
	}

	var deposit *domain.Deposit
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		deposit, err = s.depositRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkDepositTransition(deposit, status, refundedAmount); err != nil {
			return err
		}

		now := s.now()
		var income domain.Money
		switch status {
		case domain.DepositStatusApplied:
			deposit.AppliedAt = &now
			income = deposit.Amount
		case domain.DepositStatusPartiallyRefunded:
			r := *refundedAmount
			deposit.RefundedAmount = &r
			deposit.RefundedAt = &now
			income = deposit.Amount.Sub(r)
		case domain.DepositStatusRefunded:
			r := *refundedAmount
			deposit.RefundedAmount = &r
			deposit.RefundedAt = &now
		}
		deposit.Status = status

		if err := s.depositRepo.Update(ctx, tx, deposit); err != nil {
			return err
		}
		if !income.IsPositive() {
			return nil
		}

		booking, err := s.bookingRepo.GetByID(ctx, tx, deposit.BookingID)
		if err != nil {
			return err
		}
		txn := &domain.Transaction{
			LocationID:  booking.LocationID,
			Amount:      income,
			Type:        domain.TransactionTypeIncome,
			Category:    s.incomeCategory,
			Description: fmt.Sprintf("Deposit %d for booking %d %s", deposit.ID, deposit.BookingID, depositIncomeLabel(status)),
			Date:        utils.DateOnly(now),
			Related:     domain.DepositRef(deposit.ID),
		}
		if err := s.txnSvc.CreateTransactionTx(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to record deposit income: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.UpdateDepositStatus", err, "depositID", id, "status", status)
		return nil, err
	}

	logger.ExitMethod("depositService.UpdateDepositStatus", "depositID", id, "status", deposit.Status)
	return deposit, nil
}

func depositIncomeLabel(status domain.DepositStatus) string {
	if status == domain.DepositStatusPartiallyRefunded {
		return "retained after partial refund"
	}
	return "applied"
}

// DeleteDeposit removes the mirrored bill items, re-totals the affected bills
// and deletes the deposit.
func (s *depositService) DeleteDeposit(ctx context.Context, id int32) error {
	logger.EnterMethod("depositService.DeleteDeposit", "depositID", id)

	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if _, err := s.depositRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		billIDs, err := s.billRepo.DeleteItemsByRelated(ctx, tx, *domain.DepositRef(id))
		if err != nil {
			return err
		}
		for _, billID := range billIDs {
			if _, err := s.billRepo.RecomputeAmount(ctx, tx, billID); err != nil {
				return err
			}
		}
		return s.depositRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.DeleteDeposit", err, "depositID", id)
		return err
	}

	logger.ExitMethod("depositService.DeleteDeposit", "depositID", id)
	return nil
}
