package domain

import "time"

type DepositStatus string

const (
	DepositStatusUnpaid            DepositStatus = "UNPAID"
	DepositStatusHeld              DepositStatus = "HELD"
	DepositStatusApplied           DepositStatus = "APPLIED"
	DepositStatusRefunded          DepositStatus = "REFUNDED"
	DepositStatusPartiallyRefunded DepositStatus = "PARTIALLY_REFUNDED"
	DepositStatusForfeited         DepositStatus = "FORFEITED"
)

func (s DepositStatus) Valid() bool {
	switch s {
	case DepositStatusUnpaid, DepositStatusHeld, DepositStatusApplied,
		DepositStatusRefunded, DepositStatusPartiallyRefunded, DepositStatusForfeited:
		return true
	}
	return false
}

// IsResolved reports whether the deposit has left UNPAID/HELD for good.
func (s DepositStatus) IsResolved() bool {
	return s.Valid() && s != DepositStatusUnpaid && s != DepositStatusHeld
}

type Deposit struct {
	ID             int32         `json:"id"`
	BookingID      int32         `json:"booking_id"`
	Amount         Money         `json:"amount"`
	Status         DepositStatus `json:"status"`
	RefundedAmount *Money        `json:"refunded_amount,omitempty"`
	AppliedAt      *time.Time    `json:"applied_at,omitempty"`
	RefundedAt     *time.Time    `json:"refunded_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
