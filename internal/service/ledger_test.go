package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validTransaction() *domain.Transaction {
	return &domain.Transaction{
		LocationID: 3,
		Amount:     money("400"),
		Type:       domain.TransactionTypeIncome,
		Category:   "Deposit",
		Date:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateTransaction(t *testing.T) {
	repo := new(MockTransactionRepo)
	svc := NewTransactionService(&fakeTxManager{}, repo)
	txn := validTransaction()
	repo.On("Create", mock.Anything, mock.Anything, txn).Run(func(args mock.Arguments) {
		args.Get(2).(*domain.Transaction).ID = 77
	}).Return(nil)

	err := svc.CreateTransaction(context.Background(), txn)

	require.NoError(t, err)
	assert.Equal(t, int32(77), txn.ID)
}

func TestCreateTransaction_Validation(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(txn *domain.Transaction)
		field string
	}{
		{"Missing location", func(txn *domain.Transaction) { txn.LocationID = 0 }, "location_id"},
		{"Unknown type", func(txn *domain.Transaction) { txn.Type = "TRANSFER" }, "type"},
		{"Zero amount", func(txn *domain.Transaction) { txn.Amount = money("0") }, "amount"},
		{"Sub-cent amount", func(txn *domain.Transaction) { txn.Amount = money("10.123") }, "amount"},
		{"Missing category", func(txn *domain.Transaction) { txn.Category = "" }, "category"},
		{"Missing date", func(txn *domain.Transaction) { txn.Date = time.Time{} }, "date"},
		{"Bad related kind", func(txn *domain.Transaction) { txn.Related = &domain.RelatedRef{Kind: "ROOM", ID: 1} }, "related.kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTransactionRepo)
			svc := NewTransactionService(&fakeTxManager{}, repo)
			txn := validTransaction()
			tt.mod(txn)

			err := svc.CreateTransaction(context.Background(), txn)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestListTransactions_RejectsInvertedRange(t *testing.T) {
	repo := new(MockTransactionRepo)
	svc := NewTransactionService(&fakeTxManager{}, repo)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.ListTransactions(context.Background(), domain.TransactionFilter{From: &from, To: &to})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFinancialSummary(t *testing.T) {
	repo := new(MockTransactionRepo)
	svc := NewTransactionService(&fakeTxManager{}, repo)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	repo.On("Summarize", mock.Anything, mock.Anything, int32(3), from, to).Return(&domain.FinancialSummary{
		LocationID: 3,
		Income:     money("1400"),
		Expense:    money("250"),
		Net:        money("1150"),
	}, nil)

	summary, err := svc.FinancialSummary(context.Background(), 3, from, to)

	require.NoError(t, err)
	assert.True(t, summary.Net.Equal(money("1150")))

	_, err = svc.FinancialSummary(context.Background(), 3, to, from)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
