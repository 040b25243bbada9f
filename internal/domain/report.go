package domain

import "time"

type BillingOutcome string

const (
	BillingOutcomeProcessed    BillingOutcome = "processed"
	BillingOutcomeNoBillNeeded BillingOutcome = "no_bill_needed"
	BillingOutcomeFailed       BillingOutcome = "failed"
)

// BillingRunEntry is the outcome of the recurring billing run for one booking.
type BillingRunEntry struct {
	BookingID int32          `json:"booking_id"`
	Outcome   BillingOutcome `json:"outcome"`
	BillID    *int32         `json:"bill_id,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BillingRunReport summarises one recurring billing run.
type BillingRunReport struct {
	AsOf             time.Time         `json:"as_of"`
	StartedAt        time.Time         `json:"started_at"`
	FinishedAt       time.Time         `json:"finished_at"`
	Total            int               `json:"total"`
	Processed        int               `json:"processed"`
	NoBillNeeded     int               `json:"no_bill_needed"`
	Failed           int               `json:"failed"`
	FailedBookingIDs []int32           `json:"failed_booking_ids,omitempty"`
	Entries          []BillingRunEntry `json:"entries"`
}

func (r *BillingRunReport) Add(e BillingRunEntry) {
	r.Entries = append(r.Entries, e)
	r.Total++
	switch e.Outcome {
	case BillingOutcomeProcessed:
		r.Processed++
	case BillingOutcomeNoBillNeeded:
		r.NoBillNeeded++
	case BillingOutcomeFailed:
		r.Failed++
		r.FailedBookingIDs = append(r.FailedBookingIDs, e.BookingID)
	}
}

// PartialSuccess reports whether some, but not necessarily all, bookings failed.
func (r *BillingRunReport) PartialSuccess() bool {
	return r.Failed > 0
}
