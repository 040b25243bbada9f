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
)

type billService struct {
	txManager   repository.TxManager
	billRepo    repository.BillRepository
	bookingRepo repository.BookingRepository
	generator   *billing.Generator
	now         Clock
}

func NewBillService(
	txManager repository.TxManager,
	billRepo repository.BillRepository,
	bookingRepo repository.BookingRepository,
	generator *billing.Generator,
) BillService {
	return &billService{
		txManager:   txManager,
		billRepo:    billRepo,
		bookingRepo: bookingRepo,
		generator:   generator,
		now:         time.Now,
	}
}

func (s *billService) GetBill(ctx context.Context, id int32) (*domain.Bill, error) {
	return s.billRepo.GetByID(ctx, s.txManager.DB(), id)
}

func (s *billService) ListBillsByBooking(ctx context.Context, bookingID int32) ([]domain.Bill, error) {
	if _, err := s.bookingRepo.GetByID(ctx, s.txManager.DB(), bookingID); err != nil {
		return nil, err
	}
	return s.billRepo.ListByBooking(ctx, s.txManager.DB(), bookingID)
}

func (s *billService) ListOutstandingBills(ctx context.Context, bookingID int32) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		bills, err = s.billRepo.ListOutstandingForUpdate(ctx, tx, bookingID, s.now())
		return err
	})
	return bills, err
}

func validateItemInput(description string, amount domain.Money) error {
	if description == "" {
		return domain.NewValidationError("description", "is required")
	}
	if amount.IsNegative() {
		return domain.NewValidationError("amount", "must not be negative")
	}
	return domain.CheckMoneyScale("amount", amount)
}

// editableItem rejects items owned by the generator or mirrored from a deposit.
func editableItem(item *domain.BillItem) error {
	if item.Type == domain.BillItemTypeGenerated {
		return domain.NewValidationError("item", "generated items cannot be changed")
	}
	if item.Related != nil && item.Related.Kind == domain.RelatedKindDeposit {
		return domain.NewValidationError("item", "deposit items follow their deposit")
	}
	return nil
}

func (s *billService) AddBillItem(ctx context.Context, billID int32, description string, amount domain.Money) (*domain.Bill, error) {
	logger.EnterMethod("billService.AddBillItem", "billID", billID, "amount", amount)

	if err := validateItemInput(description, amount); err != nil {
		logger.ExitMethodWithError("billService.AddBillItem", err)
		return nil, err
	}

	var bill *domain.Bill
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		item := &domain.BillItem{
			BillID:      billID,
			Description: description,
			Amount:      amount,
			Type:        domain.BillItemTypeCreated,
		}
		if _, err := s.billRepo.GetByID(ctx, tx, billID); err != nil {
			return err
		}
		if err := s.billRepo.CreateItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to create bill item: %w", err)
		}
		if _, err := s.billRepo.RecomputeAmount(ctx, tx, billID); err != nil {
			return err
		}
		var err error
		bill, err = s.billRepo.GetByID(ctx, tx, billID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("billService.AddBillItem", err, "billID", billID)
		return nil, err
	}

	logger.ExitMethod("billService.AddBillItem", "billID", billID, "amount", bill.Amount)
	return bill, nil
}

func (s *billService) UpdateBillItem(ctx context.Context, itemID int32, description string, amount domain.Money) (*domain.Bill, error) {
	logger.EnterMethod("billService.UpdateBillItem", "itemID", itemID, "amount", amount)

	if err := validateItemInput(description, amount); err != nil {
		logger.ExitMethodWithError("billService.UpdateBillItem", err)
		return nil, err
	}

	var bill *domain.Bill
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		item, err := s.billRepo.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if err := editableItem(item); err != nil {
			return err
		}
		item.Description = description
		item.Amount = amount
		if err := s.billRepo.UpdateItem(ctx, tx, item); err != nil {
			return err
		}
		if _, err := s.billRepo.RecomputeAmount(ctx, tx, item.BillID); err != nil {
			return err
		}
		bill, err = s.billRepo.GetByID(ctx, tx, item.BillID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("billService.UpdateBillItem", err, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("billService.UpdateBillItem", "billID", bill.ID, "amount", bill.Amount)
	return bill, nil
}

func (s *billService) DeleteBillItem(ctx context.Context, itemID int32) (*domain.Bill, error) {
	logger.EnterMethod("billService.DeleteBillItem", "itemID", itemID)

	var bill *domain.Bill
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		item, err := s.billRepo.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if err := editableItem(item); err != nil {
			return err
		}
		if err := s.billRepo.DeleteItem(ctx, tx, itemID); err != nil {
			return err
		}
		if _, err := s.billRepo.RecomputeAmount(ctx, tx, item.BillID); err != nil {
			return err
		}
		bill, err = s.billRepo.GetByID(ctx, tx, item.BillID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("billService.DeleteBillItem", err, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("billService.DeleteBillItem", "billID", bill.ID)
	return bill, nil
}

func (s *billService) GenerateNextBill(ctx context.Context, bookingID int32, asOf time.Time) (*domain.Bill, error) {
	logger.EnterMethod("billService.GenerateNextBill", "bookingID", bookingID, "asOf", asOf)

	var bill *domain.Bill
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		// Locking the booking serialises concurrent runs for the same booking.
		booking, err := s.bookingRepo.LockByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		booking.Addons, err = s.bookingRepo.ListAddons(ctx, tx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to load addons: %w", err)
		}
		bill, err = s.GenerateNextBillTx(ctx, tx, booking, asOf)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("billService.GenerateNextBill", err, "bookingID", bookingID)
		return nil, err
	}

	if bill == nil {
		logger.ExitMethod("billService.GenerateNextBill", "bookingID", bookingID, "result", "no bill needed")
		return nil, nil
	}
	logger.ExitMethod("billService.GenerateNextBill", "bookingID", bookingID, "billID", bill.ID)
	return bill, nil
}

func (s *billService) GenerateNextBillTx(ctx context.Context, tx repository.DBTX, booking *domain.Booking, asOf time.Time) (*domain.Bill, error) {
	existing, err := s.billRepo.ListByBooking(ctx, tx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing bills: %w", err)
	}

	bill := s.generator.NextPeriodicBill(booking, existing, asOf)
	if bill == nil {
		return nil, nil
	}

	if err := s.billRepo.Create(ctx, tx, bill); err != nil {
		if errors.Is(err, domain.ErrDuplicateBillPeriod) {
			logger.Warn("Bill period already exists", "bookingID", booking.ID, "periodStart", bill.PeriodStart)
		}
		return nil, err
	}
	return bill, nil
}
