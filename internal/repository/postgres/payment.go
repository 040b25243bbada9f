package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
)

type paymentRepository struct{}

func NewPaymentRepository() repository.PaymentRepository {
	return &paymentRepository{}
}

const paymentColumns = `id, booking_id, amount, payment_date, proof_ref, status, created_at, updated_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var proof sql.NullString
	var status string
	if err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.PaymentDate, &proof, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ProofRef = stringPtr(proof)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, db repository.DBTX, payment *domain.Payment) error {
	logger.EnterMethod("paymentRepository.Create", "bookingID", payment.BookingID, "amount", payment.Amount)

	query := `
		INSERT INTO payments (booking_id, amount, payment_date, proof_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := db.QueryRowContext(ctx, query,
		payment.BookingID, payment.Amount, payment.PaymentDate, nullString(payment.ProofRef), payment.Status, now, now,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err, "bookingID", payment.BookingID)
		return err
	}

	logger.ExitMethod("paymentRepository.Create", "paymentID", payment.ID)
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Payment, error) {
	logger.EnterMethod("paymentRepository.GetByID", "paymentID", id)

	payment, err := scanPayment(db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.GetByID", err, "paymentID", id)
		return nil, notFound(err, domain.ErrPaymentNotFound)
	}

	logger.ExitMethod("paymentRepository.GetByID", "paymentID", id)
	return payment, nil
}

// Update rewrites the payment row only. Allocation rows and bill balances are
// left as they are.
func (r *paymentRepository) Update(ctx context.Context, db repository.DBTX, payment *domain.Payment) error {
	logger.EnterMethod("paymentRepository.Update", "paymentID", payment.ID)

	query := `
		UPDATE payments SET amount = $1, payment_date = $2, proof_ref = $3, status = $4, updated_at = $5
		WHERE id = $6
		RETURNING updated_at
	`
	err := db.QueryRowContext(ctx, query,
		payment.Amount, payment.PaymentDate, nullString(payment.ProofRef), payment.Status, time.Now(), payment.ID,
	).Scan(&payment.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Update", err, "paymentID", payment.ID)
		return notFound(err, domain.ErrPaymentNotFound)
	}

	logger.ExitMethod("paymentRepository.Update", "paymentID", payment.ID)
	return nil
}

func (r *paymentRepository) ListByBooking(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.Payment, error) {
	logger.EnterMethod("paymentRepository.ListByBooking", "bookingID", bookingID)

	rows, err := db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY payment_date DESC, id DESC`, bookingID)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.ListByBooking", err, "bookingID", bookingID)
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("paymentRepository.ListByBooking", "count", len(payments))
	return payments, nil
}

func (r *paymentRepository) CreateAllocation(ctx context.Context, db repository.DBTX, alloc *domain.PaymentBill) error {
	logger.EnterMethod("paymentRepository.CreateAllocation", "paymentID", alloc.PaymentID, "billID", alloc.BillID)

	query := `
		INSERT INTO payment_bills (payment_id, bill_id, amount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := db.QueryRowContext(ctx, query, alloc.PaymentID, alloc.BillID, alloc.Amount, time.Now()).
		Scan(&alloc.ID, &alloc.CreatedAt)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.CreateAllocation", err, "paymentID", alloc.PaymentID)
		return err
	}

	logger.ExitMethod("paymentRepository.CreateAllocation", "allocationID", alloc.ID)
	return nil
}

func (r *paymentRepository) ListAllocations(ctx context.Context, db repository.DBTX, paymentID int32) ([]domain.PaymentBill, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, payment_id, bill_id, amount, created_at FROM payment_bills WHERE payment_id = $1 ORDER BY id`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocs []domain.PaymentBill
	for rows.Next() {
		var a domain.PaymentBill
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.BillID, &a.Amount, &a.CreatedAt); err != nil {
			return nil, err
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}
