package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewPaymentRepository()
	now := time.Now()
	proof := "payment-proofs/7/abc.pdf"
	p := &domain.Payment{
		BookingID:   7,
		Amount:      domain.MustMoney("120"),
		PaymentDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ProofRef:    &proof,
		Status:      domain.PaymentStatusCompleted,
	}

	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(int32(7), p.Amount, p.PaymentDate, proof, domain.PaymentStatusCompleted, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(55, now, now))

	require.NoError(t, repo.Create(context.Background(), db, p))
	assert.Equal(t, int32(55), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_GetAndUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewPaymentRepository()
	ctx := context.Background()
	paid := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Get without proof", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
			WithArgs(int32(55)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "amount", "payment_date", "proof_ref", "status", "created_at", "updated_at"}).
				AddRow(55, 7, "120.00", paid, nil, "PENDING", paid, paid))

		p, err := repo.GetByID(ctx, db, 55)
		require.NoError(t, err)
		assert.Nil(t, p.ProofRef)
		assert.Equal(t, domain.PaymentStatusPending, p.Status)
	})

	t.Run("Update missing payment", func(t *testing.T) {
		mock.ExpectQuery("UPDATE payments SET").
			WillReturnError(sql.ErrNoRows)

		err := repo.Update(ctx, db, &domain.Payment{ID: 99, Amount: domain.MustMoney("1"), Status: domain.PaymentStatusFailed})
		assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_CreateAllocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewPaymentRepository()
	alloc := &domain.PaymentBill{PaymentID: 55, BillID: 1, Amount: domain.MustMoney("50")}

	mock.ExpectQuery("INSERT INTO payment_bills").
		WithArgs(int32(55), int32(1), alloc.Amount, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, time.Now()))

	require.NoError(t, repo.CreateAllocation(context.Background(), db, alloc))
	assert.Equal(t, int32(3), alloc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
