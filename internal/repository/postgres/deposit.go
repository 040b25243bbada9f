package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
)

type depositRepository struct{}

func NewDepositRepository() repository.DepositRepository {
	return &depositRepository{}
}

const depositColumns = `
	id, booking_id, amount, status, refunded_amount, applied_at, refunded_at, created_at, updated_at
`

func scanDeposit(row rowScanner) (*domain.Deposit, error) {
	var (
		d          domain.Deposit
		status     string
		refunded   domain.NullMoney
		appliedAt  sql.NullTime
		refundedAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.BookingID, &d.Amount, &status, &refunded, &appliedAt, &refundedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DepositStatus(status)
	d.RefundedAmount = refunded.Ptr()
	d.AppliedAt = timePtr(appliedAt)
	d.RefundedAt = timePtr(refundedAt)
	return &d, nil
}

func (r *depositRepository) Create(ctx context.Context, db repository.DBTX, deposit *domain.Deposit) error {
	logger.EnterMethod("depositRepository.Create", "bookingID", deposit.BookingID, "amount", deposit.Amount)

	query := `
		INSERT INTO deposits (booking_id, amount, status, refunded_amount, applied_at, refunded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := db.QueryRowContext(ctx, query,
		deposit.BookingID, deposit.Amount, deposit.Status, domain.MoneyPtrValue(deposit.RefundedAmount),
		deposit.AppliedAt, deposit.RefundedAt, now, now,
	).Scan(&deposit.ID, &deposit.CreatedAt, &deposit.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("depositRepository.Create", err, "bookingID", deposit.BookingID)
		return err
	}

	logger.ExitMethod("depositRepository.Create", "depositID", deposit.ID)
	return nil
}

func (r *depositRepository) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Deposit, error) {
	return r.get(ctx, db, id, "")
}

// GetByIDForUpdate holds a row lock on the deposit until the caller's
// transaction ends, serialising concurrent status changes.
func (r *depositRepository) GetByIDForUpdate(ctx context.Context, db repository.DBTX, id int32) (*domain.Deposit, error) {
	return r.get(ctx, db, id, " FOR UPDATE")
}

func (r *depositRepository) get(ctx context.Context, db repository.DBTX, id int32, suffix string) (*domain.Deposit, error) {
	logger.EnterMethod("depositRepository.GetByID", "depositID", id)

	deposit, err := scanDeposit(db.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`+suffix, id))
	if err != nil {
		logger.ExitMethodWithError("depositRepository.GetByID", err, "depositID", id)
		return nil, notFound(err, domain.ErrDepositNotFound)
	}

	logger.ExitMethod("depositRepository.GetByID", "depositID", id)
	return deposit, nil
}

func (r *depositRepository) Update(ctx context.Context, db repository.DBTX, deposit *domain.Deposit) error {
	logger.EnterMethod("depositRepository.Update", "depositID", deposit.ID, "status", deposit.Status)

	query := `
		UPDATE deposits SET
			amount = $1, status = $2, refunded_amount = $3, applied_at = $4, refunded_at = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := db.ExecContext(ctx, query,
		deposit.Amount, deposit.Status, domain.MoneyPtrValue(deposit.RefundedAmount),
		deposit.AppliedAt, deposit.RefundedAt, time.Now(), deposit.ID,
	)
	if err != nil {
		logger.ExitMethodWithError("depositRepository.Update", err, "depositID", deposit.ID)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrDepositNotFound
	}

	logger.ExitMethod("depositRepository.Update", "depositID", deposit.ID)
	return nil
}

func (r *depositRepository) Delete(ctx context.Context, db repository.DBTX, id int32) error {
	logger.EnterMethod("depositRepository.Delete", "depositID", id)

	result, err := db.ExecContext(ctx, `DELETE FROM deposits WHERE id = $1`, id)
	if err != nil {
		logger.ExitMethodWithError("depositRepository.Delete", err, "depositID", id)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrDepositNotFound
	}

	logger.ExitMethod("depositRepository.Delete", "depositID", id)
	return nil
}

func (r *depositRepository) ListByBooking(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.Deposit, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, *d)
	}
	return deposits, rows.Err()
}
