package domain

import "time"

type BillItemType string

const (
	BillItemTypeGenerated BillItemType = "GENERATED"
	BillItemTypeCreated   BillItemType = "CREATED"
)

type Bill struct {
	ID          int32      `json:"id"`
	BookingID   int32      `json:"booking_id"`
	Description string     `json:"description"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	DueDate     time.Time  `json:"due_date"`
	Amount      Money      `json:"amount"`
	PaidAmount  Money      `json:"paid_amount"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	Items       []BillItem `json:"items,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Outstanding is the unpaid remainder of the bill.
func (b *Bill) Outstanding() Money {
	return b.Amount.Sub(b.PaidAmount)
}

func (b *Bill) IsSettled() bool {
	return !b.PaidAmount.LessThan(b.Amount)
}

// IsOutstanding reports whether the bill is unpaid and already due.
func (b *Bill) IsOutstanding(now time.Time) bool {
	return b.PaidAmount.LessThan(b.Amount) && !b.DueDate.After(now)
}

// ItemsTotal sums the line items.
func (b *Bill) ItemsTotal() Money {
	total := ZeroMoney()
	for _, it := range b.Items {
		total = total.Add(it.Amount)
	}
	return total
}

type BillItem struct {
	ID          int32        `json:"id"`
	BillID      int32        `json:"bill_id"`
	Description string       `json:"description"`
	Amount      Money        `json:"amount"`
	Type        BillItemType `json:"type"`
	Related     *RelatedRef  `json:"related,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// BillReminder is an outstanding bill joined with the tenant to notify.
type BillReminder struct {
	BillID      int32     `json:"bill_id"`
	BookingID   int32     `json:"booking_id"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Outstanding Money     `json:"outstanding"`
	TenantName  string    `json:"tenant_name"`
	TenantEmail string    `json:"tenant_email"`
	RoomNumber  string    `json:"room_number"`
}
