package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

// RunRecurringBilling is the cron entry point for GenerateRecurringBills.
func (jr *JobRunner) RunRecurringBilling() {
	jr.runWithRecovery("RecurringBilling", func(log *slog.Logger) {
		report, err := jr.GenerateRecurringBills(context.Background(), jr.now())
		if report != nil {
			log.Info("Recurring billing finished",
				"as_of", report.AsOf.Format(utils.DateLayout),
				"total", report.Total,
				"processed", report.Processed,
				"no_bill_needed", report.NoBillNeeded,
				"failed", report.Failed)
		}
		if err != nil {
			log.Error("Recurring billing completed with errors", "error", err)
		}
	})
}

// GenerateRecurringBills issues the next due bill for every active rolling
// booking as of asOf. A failing booking is recorded in the report and the
// run moves on; the returned *domain.BatchError lists every failed booking.
// Running it twice for the same date creates nothing the second time.
func (jr *JobRunner) GenerateRecurringBills(ctx context.Context, asOf time.Time) (*domain.BillingRunReport, error) {
	asOf = utils.DateOnly(asOf)
	report := &domain.BillingRunReport{AsOf: asOf, StartedAt: jr.now(), Entries: []domain.BillingRunEntry{}}

	bookings, err := jr.repos.Bookings.ListActiveRolling(ctx, jr.db, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load rolling bookings: %w", err)
	}

	batchErr := &domain.BatchError{}
	for _, b := range bookings {
		entry, err := jr.billBooking(ctx, b.ID, asOf)
		report.Add(entry)
		if err != nil {
			batchErr.FailedBookingIDs = append(batchErr.FailedBookingIDs, b.ID)
			batchErr.Errs = append(batchErr.Errs, fmt.Errorf("booking %d: %w", b.ID, err))
		}
	}
	report.FinishedAt = jr.now()

	if len(batchErr.FailedBookingIDs) > 0 {
		return report, batchErr
	}
	return report, nil
}

func (jr *JobRunner) billBooking(ctx context.Context, bookingID int32, asOf time.Time) (entry domain.BillingRunEntry, err error) {
	entry.BookingID = bookingID
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while billing booking %d: %v", bookingID, r)
		}
		if err != nil {
			entry.Outcome = domain.BillingOutcomeFailed
			entry.BillID = nil
			entry.Error = err.Error()
			logger.Error("Failed to bill booking", "bookingID", bookingID, "error", err)
		}
	}()

	bill, err := jr.services.Bill.GenerateNextBill(ctx, bookingID, asOf)
	switch {
	case errors.Is(err, domain.ErrDuplicateBillPeriod):
		// Another run got there first.
		entry.Outcome = domain.BillingOutcomeNoBillNeeded
		return entry, nil
	case err != nil:
		return entry, err
	case bill == nil:
		entry.Outcome = domain.BillingOutcomeNoBillNeeded
		return entry, nil
	}

	id := bill.ID
	entry.Outcome = domain.BillingOutcomeProcessed
	entry.BillID = &id
	return entry, nil
}
