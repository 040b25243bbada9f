package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

// SendBillReminders emails tenants about bills that are due and unpaid
func (jr *JobRunner) SendBillReminders() {
	jr.runWithRecovery("SendBillReminders", func(log *slog.Logger) {
		sent, err := jr.SendBillRemindersAt(context.Background(), jr.now())
		if err != nil {
			log.Error("Failed to send bill reminders", "error", err)
			return
		}
		log.Info("Bill reminders sent", "count", sent)
	})
}

// SendBillRemindersAt sends one reminder per outstanding bill as of now.
// Individual send failures are logged and skipped.
func (jr *JobRunner) SendBillRemindersAt(ctx context.Context, now time.Time) (int, error) {
	reminders, err := jr.repos.Bills.ListOutstandingReminders(ctx, jr.db, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query outstanding bills: %w", err)
	}

	count := 0
	for _, r := range reminders {
		if r.TenantEmail == "" {
			logger.Debug("Skipping reminder for tenant without email", "bill_id", r.BillID, "booking_id", r.BookingID)
			continue
		}

		subject := fmt.Sprintf("Reminder: %s is due", r.Description)
		if err := jr.services.Mail.SendMail(ctx, r.TenantEmail, r.TenantName, subject, reminderBody(r)); err != nil {
			logger.Error("Failed to send bill reminder email",
				"bill_id", r.BillID,
				"booking_id", r.BookingID,
				"email", r.TenantEmail,
				"error", err)
			continue
		}

		count++
		logger.Debug("Sent bill reminder", "bill_id", r.BillID, "booking_id", r.BookingID)
	}
	return count, nil
}

func reminderBody(r domain.BillReminder) string {
	return fmt.Sprintf(`Dear %s,

This is a reminder that "%s" for room %s was due on %s.

Outstanding amount: %s

Please settle the balance at your earliest convenience.

Thank you,
Front Office`, r.TenantName, r.Description, r.RoomNumber, r.DueDate.Format(utils.DateLayout), r.Outstanding)
}
