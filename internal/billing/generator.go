package billing

import (
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/utils"
)

const (
	RoomFeeDescription = "Room fee"
	StayFeeDescription = "Stay fee"
)

// Generator derives bills from a booking and its billing history. It never
// touches storage.
type Generator struct {
	// DueDateOffsetDays shifts the due date past the period start.
	DueDateOffsetDays int
}

func NewGenerator(dueDateOffsetDays int) *Generator {
	return &Generator{DueDateOffsetDays: dueDateOffsetDays}
}

// NextPeriodicBill returns the bill for the first monthly period of a rolling
// booking not yet covered by existing, or nil when that period has not started
// by asOf, the booking has ended, or the booking is not rolling.
//
// Periods are anchored on the booking start date. The next period begins the
// day after the latest existing period end. Calling it again with the
// returned bill included in existing yields nil for the same asOf.
func (g *Generator) NextPeriodicBill(booking *domain.Booking, existing []domain.Bill, asOf time.Time) *domain.Bill {
	if booking == nil || !booking.IsRolling {
		return nil
	}
	asOf = utils.DateOnly(asOf)

	var endDate *time.Time
	if booking.EndDate != nil {
		end := utils.DateOnly(*booking.EndDate)
		if end.Before(asOf) {
			return nil
		}
		endDate = &end
	}

	anchor := utils.DateOnly(booking.StartDate)
	nextStart := anchor
	var lastEnd *time.Time
	for i := range existing {
		if existing[i].BookingID != 0 && existing[i].BookingID != booking.ID {
			continue
		}
		pe := utils.DateOnly(existing[i].PeriodEnd)
		if lastEnd == nil || pe.After(*lastEnd) {
			lastEnd = &pe
		}
	}
	if lastEnd != nil {
		if candidate := lastEnd.AddDate(0, 0, 1); candidate.After(nextStart) {
			nextStart = candidate
		}
	}

	if endDate != nil && nextStart.After(*endDate) {
		return nil
	}
	if asOf.Before(nextStart) {
		return nil
	}
	for i := range existing {
		if existing[i].BookingID != 0 && existing[i].BookingID != booking.ID {
			continue
		}
		if utils.DateOnly(existing[i].PeriodStart).Equal(nextStart) {
			return nil
		}
	}

	period := utils.MonthlyPeriod(anchor, utils.MonthIndex(anchor, nextStart))
	period.Start = nextStart
	if endDate != nil && period.End.After(*endDate) {
		period.End = *endDate
	}

	items := []domain.BillItem{{
		Description: fmt.Sprintf("%s (%s)", RoomFeeDescription, period.Label()),
		Amount:      booking.Fee,
		Type:        domain.BillItemTypeGenerated,
		Related:     domain.BookingRef(booking.ID),
	}}
	items = append(items, addonItems(booking.Addons, period)...)

	bill := &domain.Bill{
		BookingID:   booking.ID,
		Description: fmt.Sprintf("Bill for %s", period.Label()),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		DueDate:     period.Start.AddDate(0, 0, g.DueDateOffsetDays),
		PaidAmount:  domain.ZeroMoney(),
		Items:       items,
	}
	bill.Amount = bill.ItemsTotal()
	return bill
}

// FixedStayBill returns the single upfront bill of a fixed-duration booking.
func (g *Generator) FixedStayBill(booking *domain.Booking) (*domain.Bill, error) {
	if booking == nil || booking.IsRolling || booking.Duration == nil {
		return nil, domain.NewValidationError("duration", "fixed stay bill requires a non-rolling booking with a duration")
	}
	amount, err := utils.CalculateFixedStayCost(booking.Fee, *booking.Duration)
	if err != nil {
		return nil, domain.NewValidationError("duration.count", err.Error())
	}

	period := utils.Period{
		Start: utils.DateOnly(booking.StartDate),
		End:   utils.FixedStayEnd(booking.StartDate, *booking.Duration),
	}
	bill := &domain.Bill{
		BookingID:   booking.ID,
		Description: fmt.Sprintf("Bill for %s", period.Label()),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		DueDate:     period.Start.AddDate(0, 0, g.DueDateOffsetDays),
		PaidAmount:  domain.ZeroMoney(),
		Items: []domain.BillItem{{
			Description: fmt.Sprintf("%s (%d x %s)", StayFeeDescription, booking.Duration.Count, booking.Duration.Unit),
			Amount:      amount,
			Type:        domain.BillItemTypeGenerated,
			Related:     domain.BookingRef(booking.ID),
		}},
	}
	bill.Amount = bill.ItemsTotal()
	return bill, nil
}

// addonItems prices every add-on active during the period by its interval tier.
func addonItems(addons []domain.BookingAddon, period utils.Period) []domain.BillItem {
	var items []domain.BillItem
	for _, addon := range addons {
		if !period.Overlaps(addon.StartDate, addon.EndDate) {
			continue
		}
		idx := utils.MonthIndex(addon.StartDate, period.Start)
		if idx < 0 {
			idx = 0
		}
		price, ok := utils.AddonPriceForMonth(addon.Pricing, idx)
		if !ok || !price.IsPositive() {
			continue
		}
		items = append(items, domain.BillItem{
			Description: addon.Name,
			Amount:      price,
			Type:        domain.BillItemTypeGenerated,
			Related:     &domain.RelatedRef{Kind: domain.RelatedKindAddon, ID: addon.ID},
		})
	}
	return items
}
