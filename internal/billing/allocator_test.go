package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func m(s string) domain.Money {
	return domain.MustMoney(s)
}

func bill(id int32, due string, amount, paid string) domain.Bill {
	d, err := time.Parse("2006-01-02", due)
	if err != nil {
		panic(err)
	}
	return domain.Bill{ID: id, BookingID: 1, DueDate: d, Amount: m(amount), PaidAmount: m(paid)}
}

// January has 50 outstanding, February 100.
func twoBills() []domain.Bill {
	return []domain.Bill{
		bill(2, "2024-02-01", "100", "0"),
		bill(1, "2024-01-01", "80", "30"),
	}
}

func TestAllocate_OldestFirst(t *testing.T) {
	res := Allocate(m("120"), twoBills())

	require.Len(t, res.Updates, 2)
	assert.Equal(t, int32(1), res.Updates[0].BillID)
	assert.True(t, res.Updates[0].Applied.Equal(m("50")))
	assert.True(t, res.Updates[0].NewPaidAmount.Equal(m("80")))
	assert.Equal(t, int32(2), res.Updates[1].BillID)
	assert.True(t, res.Updates[1].Applied.Equal(m("70")))
	assert.True(t, res.Updates[1].NewPaidAmount.Equal(m("70")))
	assert.True(t, res.Balance.IsZero())
}

func TestAllocate_ExactPayment(t *testing.T) {
	res := Allocate(m("150"), twoBills())

	require.Len(t, res.Updates, 2)
	assert.True(t, res.Updates[0].NewPaidAmount.Equal(m("80")))
	assert.True(t, res.Updates[1].NewPaidAmount.Equal(m("100")))
	assert.True(t, res.Balance.IsZero())
}

func TestAllocate_Overpayment(t *testing.T) {
	res := Allocate(m("200"), twoBills())

	require.Len(t, res.Updates, 2)
	assert.True(t, res.Balance.Equal(m("50")))
	assert.True(t, res.TotalApplied().Equal(m("150")))
}

func TestAllocate_PartialStopsAtFirstBill(t *testing.T) {
	res := Allocate(m("20.25"), twoBills())

	require.Len(t, res.Updates, 1)
	assert.Equal(t, int32(1), res.Updates[0].BillID)
	assert.True(t, res.Updates[0].NewPaidAmount.Equal(m("50.25")))
	assert.True(t, res.Balance.IsZero())
}

func TestAllocate_TieBreaksOnBillID(t *testing.T) {
	bills := []domain.Bill{
		bill(9, "2024-03-01", "10", "0"),
		bill(4, "2024-03-01", "10", "0"),
	}
	res := Allocate(m("10"), bills)

	require.Len(t, res.Updates, 1)
	assert.Equal(t, int32(4), res.Updates[0].BillID)
}

func TestAllocate_SkipsSettledBills(t *testing.T) {
	bills := []domain.Bill{
		bill(1, "2024-01-01", "100", "100"),
		bill(2, "2024-02-01", "100", "0"),
	}
	res := Allocate(m("40"), bills)

	require.Len(t, res.Updates, 1)
	assert.Equal(t, int32(2), res.Updates[0].BillID)
}

func TestAllocate_NoBills(t *testing.T) {
	res := Allocate(m("75"), nil)

	assert.Empty(t, res.Updates)
	assert.True(t, res.Balance.Equal(m("75")))
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	bills := twoBills()
	_ = Allocate(m("500"), bills)

	assert.Equal(t, int32(2), bills[0].ID)
	assert.True(t, bills[0].PaidAmount.IsZero())
	assert.True(t, bills[1].PaidAmount.Equal(m("30")))
}

func TestAllocate_SameInputsSameResult(t *testing.T) {
	bills := twoBills()
	first := Allocate(m("120"), bills)
	second := Allocate(m("120"), bills)

	assert.Equal(t, first, second)
}

func TestAllocate_Conservation(t *testing.T) {
	bills := []domain.Bill{
		bill(1, "2024-01-01", "333.33", "0.01"),
		bill(2, "2024-02-01", "333.33", "0"),
		bill(3, "2024-02-01", "0.10", "0"),
		bill(4, "2024-04-01", "1500000", "250000.5"),
	}

	payments := []string{"0.01", "0.10", "333.32", "333.33", "666.75", "1000", "1250666.14", "9999999.99"}
	for _, p := range payments {
		t.Run(fmt.Sprintf("payment %s", p), func(t *testing.T) {
			res := Allocate(m(p), bills)

			assert.True(t, res.TotalApplied().Add(res.Balance).Equal(m(p)))
			assert.False(t, res.Balance.IsNegative())
			for _, u := range res.Updates {
				for _, b := range bills {
					if b.ID == u.BillID {
						assert.False(t, u.NewPaidAmount.GreaterThan(b.Amount), "bill %d overpaid", b.ID)
						assert.True(t, u.NewPaidAmount.Equal(b.PaidAmount.Add(u.Applied)))
					}
				}
			}
		})
	}
}
