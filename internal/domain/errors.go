package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrDepositNotFound        = errors.New("deposit not found")
	ErrBillNotFound           = errors.New("bill not found")
	ErrBillItemNotFound       = errors.New("bill item not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrReconciliationMismatch = errors.New("payment does not reconcile with amount due")
	ErrInvalidTransition      = errors.New("invalid deposit status transition")
	ErrStorage                = errors.New("object storage failure")
	ErrTransactionTimeout     = errors.New("database transaction timed out")
	ErrDuplicateBillPeriod    = errors.New("bill already exists for period")
	ErrPartialFailure         = errors.New("batch completed with failures")
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ReconciliationMismatchError carries the residual balance left after a
// payment was allocated across every outstanding bill.
type ReconciliationMismatchError struct {
	BookingID int32
	Balance   Money
}

func (e *ReconciliationMismatchError) Error() string {
	if e.Balance.IsPositive() {
		return fmt.Sprintf("payment exceeds amount due for booking %d by %s", e.BookingID, e.Balance)
	}
	return fmt.Sprintf("payment leaves an unreconciled balance of %s for booking %d", e.Balance, e.BookingID)
}

func (e *ReconciliationMismatchError) Is(target error) bool {
	return target == ErrReconciliationMismatch
}

// InvalidTransitionError is returned when a deposit cannot move to the
// requested status.
type InvalidTransitionError struct {
	From   DepositStatus
	To     DepositStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move deposit from %s to %s: %s", e.From, e.To, e.Reason)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// BatchError aggregates per-booking failures from a billing run.
type BatchError struct {
	FailedBookingIDs []int32
	Errs             []error
}

func (e *BatchError) Error() string {
	ids := make([]string, len(e.FailedBookingIDs))
	for i, id := range e.FailedBookingIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%d booking(s) failed: [%s]: %v", len(e.FailedBookingIDs), strings.Join(ids, ", "), errors.Join(e.Errs...))
}

func (e *BatchError) Is(target error) bool {
	return target == ErrPartialFailure
}

func (e *BatchError) Unwrap() []error {
	return e.Errs
}
