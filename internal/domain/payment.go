package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

type Payment struct {
	ID          int32         `json:"id"`
	BookingID   int32         `json:"booking_id"`
	Amount      Money         `json:"amount"`
	PaymentDate time.Time     `json:"payment_date"`
	ProofRef    *string       `json:"proof_ref,omitempty"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PaymentBill records how much of a payment was applied to one bill.
type PaymentBill struct {
	ID        int32     `json:"id"`
	PaymentID int32     `json:"payment_id"`
	BillID    int32     `json:"bill_id"`
	Amount    Money     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
