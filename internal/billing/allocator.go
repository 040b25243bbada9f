package billing

import (
	"sort"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
)

// BillUpdate is the paid-amount change the allocator wants applied to one bill.
type BillUpdate struct {
	BillID        int32        `json:"bill_id"`
	Applied       domain.Money `json:"applied"`
	NewPaidAmount domain.Money `json:"new_paid_amount"`
}

// AllocationResult is the outcome of spreading one payment across bills.
// Balance is whatever could not be applied; a positive balance is an
// overpayment.
type AllocationResult struct {
	Balance domain.Money `json:"balance"`
	Updates []BillUpdate `json:"updates"`
}

// TotalApplied sums the amounts applied to bills.
func (r AllocationResult) TotalApplied() domain.Money {
	total := domain.ZeroMoney()
	for _, u := range r.Updates {
		total = total.Add(u.Applied)
	}
	return total
}

// Allocate applies payment to bills oldest due date first (ties broken by the
// lower bill id). Each bill is filled up to its amount before the next one is
// touched; a payment that runs out part-way leaves the last bill partially
// paid. Bills that are already settled are skipped. The input slice is not
// modified.
func Allocate(payment domain.Money, bills []domain.Bill) AllocationResult {
	ordered := make([]domain.Bill, len(bills))
	copy(ordered, bills)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	result := AllocationResult{Updates: []BillUpdate{}}
	remaining := payment

	for _, bill := range ordered {
		if !remaining.IsPositive() {
			break
		}
		outstanding := bill.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}

		applied := outstanding
		if remaining.LessThan(outstanding) {
			applied = remaining
		}

		result.Updates = append(result.Updates, BillUpdate{
			BillID:        bill.ID,
			Applied:       applied,
			NewPaidAmount: bill.PaidAmount.Add(applied),
		})
		remaining = remaining.Sub(applied)
	}

	result.Balance = remaining
	return result
}
