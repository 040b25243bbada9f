package domain

import "time"

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a financial ledger entry kept apart from bills.
type Transaction struct {
	ID          int32           `json:"id"`
	LocationID  int32           `json:"location_id"`
	Amount      Money           `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Related     *RelatedRef     `json:"related,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionFilter narrows ledger queries. Zero fields are ignored.
type TransactionFilter struct {
	LocationID int32
	Type       TransactionType
	From       *time.Time
	To         *time.Time
	Related    *RelatedRef
}

type FinancialSummary struct {
	LocationID int32     `json:"location_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Income     Money     `json:"income"`
	Expense    Money     `json:"expense"`
	Net        Money     `json:"net"`
}
