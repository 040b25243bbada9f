package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits used when a Money value is
// rendered for clients.
const MoneyScale = 2

// Money is an exact decimal currency amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

func ZeroMoney() Money {
	return Money{}
}

// NewMoney parses a decimal string such as "150.00".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustMoney is NewMoney for literals; it panics on malformed input.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func MoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

func (m Money) Decimal() decimal.Decimal {
	return m.d
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Mul multiplies by an integral scalar, e.g. a month count.
func (m Money) Mul(n int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(n))}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) LessThan(o Money) bool {
	return m.d.LessThan(o.d)
}

func (m Money) GreaterThan(o Money) bool {
	return m.d.GreaterThan(o.d)
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// FitsScale reports whether m has no more than MoneyScale fractional digits,
// i.e. whether it is stored in a NUMERIC(14,2) column without rounding.
func (m Money) FitsScale() bool {
	return m.d.Equal(m.d.Truncate(MoneyScale))
}

// CheckMoneyScale returns a ValidationError on field when m carries
// sub-cent digits.
func CheckMoneyScale(field string, m Money) error {
	if !m.FitsScale() {
		return NewValidationError(field, fmt.Sprintf("must have at most %d decimal places", MoneyScale))
	}
	return nil
}

// SumMoney adds all amounts exactly.
func SumMoney(amounts ...Money) Money {
	total := ZeroMoney()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String renders the fixed-point representation used on the wire.
func (m Money) String() string {
	return m.d.StringFixed(MoneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "150.00" and 150.00.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores the exact decimal text so NUMERIC columns keep full precision.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

func (m *Money) Scan(src interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.d = d
	return nil
}

// NullMoney scans nullable NUMERIC columns.
type NullMoney struct {
	Money Money
	Valid bool
}

func (n *NullMoney) Scan(src interface{}) error {
	if src == nil {
		n.Money, n.Valid = Money{}, false
		return nil
	}
	n.Valid = true
	return n.Money.Scan(src)
}

// Ptr returns nil when the column was NULL.
func (n NullMoney) Ptr() *Money {
	if !n.Valid {
		return nil
	}
	m := n.Money
	return &m
}

// MoneyPtrValue converts an optional amount to a driver value.
func MoneyPtrValue(m *Money) interface{} {
	if m == nil {
		return nil
	}
	return m.d.String()
}
