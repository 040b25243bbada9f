package domain

import "time"

type BookingStatus string

const (
	BookingStatusUpcoming  BookingStatus = "UPCOMING"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type DurationUnit string

const (
	DurationUnitDay   DurationUnit = "DAY"
	DurationUnitMonth DurationUnit = "MONTH"
)

// BookingDuration is the fixed length of a non-rolling booking.
type BookingDuration struct {
	Unit  DurationUnit `json:"unit"`
	Count int32        `json:"count"`
}

type Booking struct {
	ID         int32            `json:"id"`
	RoomID     int32            `json:"room_id"`
	TenantID   int32            `json:"tenant_id"`
	LocationID int32            `json:"location_id"` // resolved through the room
	StartDate  time.Time        `json:"start_date"`
	Duration   *BookingDuration `json:"duration,omitempty"`
	IsRolling  bool             `json:"is_rolling"`
	EndDate    *time.Time       `json:"end_date,omitempty"`
	Fee        Money            `json:"fee"`
	Status     BookingStatus    `json:"status"`
	Addons     []BookingAddon   `json:"addons,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Validate checks the rolling/duration invariant.
func (b *Booking) Validate() error {
	if b.RoomID <= 0 {
		return NewValidationError("room_id", "is required")
	}
	if b.TenantID <= 0 {
		return NewValidationError("tenant_id", "is required")
	}
	if b.StartDate.IsZero() {
		return NewValidationError("start_date", "is required")
	}
	if b.Fee.IsNegative() {
		return NewValidationError("fee", "must not be negative")
	}
	if err := CheckMoneyScale("fee", b.Fee); err != nil {
		return err
	}
	if !b.IsRolling {
		if b.Duration == nil {
			return NewValidationError("duration", "is required for non-rolling bookings")
		}
		if b.Duration.Count <= 0 {
			return NewValidationError("duration.count", "must be positive")
		}
		if b.Duration.Unit != DurationUnitDay && b.Duration.Unit != DurationUnitMonth {
			return NewValidationError("duration.unit", "must be DAY or MONTH")
		}
		if b.EndDate != nil {
			return NewValidationError("end_date", "is derived from the duration for non-rolling bookings")
		}
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return NewValidationError("end_date", "must not be before start_date")
	}
	return nil
}

// AddonPricing is one interval tier of an add-on's price list. Intervals are
// zero-based month indexes counted from the add-on start.
type AddonPricing struct {
	IntervalStart int32  `json:"interval_start"`
	IntervalEnd   *int32 `json:"interval_end,omitempty"`
	Price         Money  `json:"price"`
	IsFullPayment bool   `json:"is_full_payment"`
}

// BookingAddon attaches a recurring add-on charge to a booking.
type BookingAddon struct {
	ID        int32          `json:"id"`
	BookingID int32          `json:"booking_id"`
	AddonID   int32          `json:"addon_id"`
	Name      string         `json:"name"`
	StartDate time.Time      `json:"start_date"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	Pricing   []AddonPricing `json:"pricing"`
}
