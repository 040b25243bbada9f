package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/billing"
	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

type bookingService struct {
	txManager   repository.TxManager
	bookingRepo repository.BookingRepository
	billRepo    repository.BillRepository
	depositSvc  DepositService
	generator   *billing.Generator
}

func NewBookingService(
	txManager repository.TxManager,
	bookingRepo repository.BookingRepository,
	billRepo repository.BillRepository,
	depositSvc DepositService,
	generator *billing.Generator,
) BookingService {
	return &bookingService{
		txManager:   txManager,
		bookingRepo: bookingRepo,
		billRepo:    billRepo,
		depositSvc:  depositSvc,
		generator:   generator,
	}
}

// CreateBooking stores the booking with its add-ons, issues the first bill and
// registers the optional deposit, all in one transaction.
func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	booking := req.Booking
	logger.EnterMethod("bookingService.CreateBooking", "roomID", booking.RoomID, "tenantID", booking.TenantID, "rolling", booking.IsRolling)

	booking.StartDate = utils.DateOnly(booking.StartDate)
	if err := booking.Validate(); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	for _, addon := range booking.Addons {
		if addon.AddonID <= 0 {
			err := domain.NewValidationError("addons.addon_id", "is required")
			logger.ExitMethodWithError("bookingService.CreateBooking", err)
			return nil, err
		}
	}
	if req.DepositAmount != nil && !req.DepositAmount.IsPositive() {
		err := domain.NewValidationError("deposit", "must be positive")
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	if req.DepositAmount != nil {
		if err := domain.CheckMoneyScale("deposit", *req.DepositAmount); err != nil {
			logger.ExitMethodWithError("bookingService.CreateBooking", err)
			return nil, err
		}
	}

	var created *domain.Booking
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		addons := booking.Addons
		booking.Addons = nil
		if err := s.bookingRepo.Create(ctx, tx, &booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		for i := range addons {
			addons[i].BookingID = booking.ID
			if addons[i].StartDate.IsZero() {
				addons[i].StartDate = booking.StartDate
			}
			if err := s.bookingRepo.CreateAddon(ctx, tx, &addons[i]); err != nil {
				return fmt.Errorf("failed to attach addon %d: %w", addons[i].AddonID, err)
			}
		}

		var err error
		created, err = s.bookingRepo.GetByID(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if len(addons) > 0 {
			created.Addons, err = s.bookingRepo.ListAddons(ctx, tx, booking.ID)
			if err != nil {
				return fmt.Errorf("failed to load addons: %w", err)
			}
		}

		var bill *domain.Bill
		if created.IsRolling {
			bill = s.generator.NextPeriodicBill(created, nil, created.StartDate)
			if bill == nil {
				return fmt.Errorf("no opening bill could be generated for booking %d", created.ID)
			}
		} else {
			bill, err = s.generator.FixedStayBill(created)
			if err != nil {
				return err
			}
		}
		if err := s.billRepo.Create(ctx, tx, bill); err != nil {
			return fmt.Errorf("failed to create first bill: %w", err)
		}

		if req.DepositAmount != nil {
			if _, err := s.depositSvc.CreateDepositTx(ctx, tx, created.ID, *req.DepositAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", created.ID)
	return created, nil
}

// ScheduleEndOfStay sets the end date of a rolling booking. The date may not
// fall before the start of a period that has already been billed.
func (s *bookingService) ScheduleEndOfStay(ctx context.Context, bookingID int32, endDate time.Time) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.ScheduleEndOfStay", "bookingID", bookingID, "endDate", endDate)

	end := utils.DateOnly(endDate)
	var booking *domain.Booking
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		booking, err = s.bookingRepo.LockByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !booking.IsRolling {
			return domain.NewValidationError("booking", "only rolling bookings can be ended")
		}
		if end.Before(utils.DateOnly(booking.StartDate)) {
			return domain.NewValidationError("end_date", "must not be before the booking start")
		}

		bills, err := s.billRepo.ListByBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		for _, b := range bills {
			if end.Before(utils.DateOnly(b.PeriodStart)) {
				return domain.NewValidationError("end_date", fmt.Sprintf("period starting %s is already billed", b.PeriodStart.Format(utils.DateLayout)))
			}
		}

		if err := s.bookingRepo.UpdateEndDate(ctx, tx, bookingID, &end); err != nil {
			return err
		}
		booking.EndDate = &end
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ScheduleEndOfStay", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("bookingService.ScheduleEndOfStay", "bookingID", bookingID)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int32) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, s.txManager.DB(), id)
	if err != nil {
		return nil, err
	}
	booking.Addons, err = s.bookingRepo.ListAddons(ctx, s.txManager.DB(), id)
	if err != nil {
		return nil, err
	}
	return booking, nil
}
