package domain

import "fmt"

// RelatedKind names the entity a bill item or ledger transaction points back to.
type RelatedKind string

const (
	RelatedKindBooking RelatedKind = "BOOKING"
	RelatedKindDeposit RelatedKind = "DEPOSIT"
	RelatedKindPayment RelatedKind = "PAYMENT"
	RelatedKindAddon   RelatedKind = "BOOKING_ADDON"
)

// RelatedRef is a typed back-reference stored as (related_kind, related_id).
type RelatedRef struct {
	Kind RelatedKind `json:"kind"`
	ID   int32       `json:"id"`
}

func DepositRef(id int32) *RelatedRef {
	return &RelatedRef{Kind: RelatedKindDeposit, ID: id}
}

func BookingRef(id int32) *RelatedRef {
	return &RelatedRef{Kind: RelatedKindBooking, ID: id}
}

func (r RelatedRef) Validate() error {
	switch r.Kind {
	case RelatedKindBooking, RelatedKindDeposit, RelatedKindPayment, RelatedKindAddon:
	default:
		return NewValidationError("related.kind", fmt.Sprintf("unknown kind %q", r.Kind))
	}
	if r.ID <= 0 {
		return NewValidationError("related.id", "must be positive")
	}
	return nil
}

// RelatedColumns splits an optional reference into nullable column values.
func RelatedColumns(r *RelatedRef) (interface{}, interface{}) {
	if r == nil {
		return nil, nil
	}
	return string(r.Kind), r.ID
}

// RelatedFromColumns rebuilds a reference from nullable columns.
func RelatedFromColumns(kind *string, id *int32) *RelatedRef {
	if kind == nil || id == nil {
		return nil
	}
	return &RelatedRef{Kind: RelatedKind(*kind), ID: *id}
}
