package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
)

const DateLayout = "2006-01-02"

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// ParseDateTime parses yyyy-mm-dd into a UTC midnight time.
func ParseDateTime(dateStr string) (time.Time, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// DateOnly truncates t to UTC midnight of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped moves t forward n months keeping the day of month,
// clamped to the last day of shorter months (Jan 31 + 1 = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = DateOnly(t)
	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	month := total%12 + 1
	if month <= 0 {
		month += 12
		year--
	}
	day := t.Day()
	if maxDay := DaysInMonth(year, month); day > maxDay {
		day = maxDay
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Period is an inclusive date range covered by one bill.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d time.Time) bool {
	d = DateOnly(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Overlaps reports whether [start, end] intersects the period. A nil end is open.
func (p Period) Overlaps(start time.Time, end *time.Time) bool {
	if DateOnly(start).After(p.End) {
		return false
	}
	return end == nil || !DateOnly(*end).Before(p.Start)
}

// Label renders the human readable period label used on bills.
func (p Period) Label() string {
	return fmt.Sprintf("%s - %s", p.Start.Format("2 Jan 2006"), p.End.Format("2 Jan 2006"))
}

// MonthlyPeriod returns the k-th (zero-based) monthly period anchored on anchor.
func MonthlyPeriod(anchor time.Time, k int) Period {
	start := AddMonthsClamped(anchor, k)
	end := AddMonthsClamped(anchor, k+1).AddDate(0, 0, -1)
	return Period{Start: start, End: end}
}

// MonthIndex returns how many whole monthly periods anchored on anchor have
// elapsed before d, or -1 when d is before anchor.
func MonthIndex(anchor, d time.Time) int {
	anchor, d = DateOnly(anchor), DateOnly(d)
	if d.Before(anchor) {
		return -1
	}
	k := 0
	for !AddMonthsClamped(anchor, k+1).After(d) {
		k++
	}
	return k
}

// FixedStayEnd returns the last day covered by a fixed-duration booking.
func FixedStayEnd(start time.Time, d domain.BookingDuration) time.Time {
	switch d.Unit {
	case domain.DurationUnitMonth:
		return AddMonthsClamped(start, int(d.Count)).AddDate(0, 0, -1)
	default:
		return DateOnly(start).AddDate(0, 0, int(d.Count)-1)
	}
}

// CalculateFixedStayCost prices a fixed-duration booking upfront: the fee is
// charged once per duration unit.
func CalculateFixedStayCost(fee domain.Money, d domain.BookingDuration) (domain.Money, error) {
	if d.Count <= 0 {
		return domain.Money{}, fmt.Errorf("duration count must be positive")
	}
	return fee.Mul(int64(d.Count)), nil
}

// AddonPriceForMonth looks up the tier covering the zero-based month index.
// Full-payment tiers are charged once, on the first month of the tier.
// The boolean is false when no tier covers the month or nothing is due.
func AddonPriceForMonth(pricing []domain.AddonPricing, monthIdx int) (domain.Money, bool) {
	if monthIdx < 0 {
		return domain.Money{}, false
	}
	idx := int32(monthIdx)
	for _, tier := range pricing {
		if idx < tier.IntervalStart {
			continue
		}
		if tier.IntervalEnd != nil && idx > *tier.IntervalEnd {
			continue
		}
		if tier.IsFullPayment && idx != tier.IntervalStart {
			return domain.Money{}, false
		}
		return tier.Price, true
	}
	return domain.Money{}, false
}
