package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"

	"github.com/lib/pq"
)

type billRepository struct{}

func NewBillRepository() repository.BillRepository {
	return &billRepository{}
}

const billColumns = `
	id, booking_id, description, period_start, period_end, due_date,
	amount, paid_amount, settled_at, created_at, updated_at
`

const billItemColumns = `
	id, bill_id, description, amount, type, related_kind, related_id, created_at, updated_at
`

func scanBill(row rowScanner) (*domain.Bill, error) {
	var b domain.Bill
	var settledAt sql.NullTime
	err := row.Scan(&b.ID, &b.BookingID, &b.Description, &b.PeriodStart, &b.PeriodEnd, &b.DueDate,
		&b.Amount, &b.PaidAmount, &settledAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.SettledAt = timePtr(settledAt)
	return &b, nil
}

func scanBillItem(row rowScanner) (*domain.BillItem, error) {
	var (
		it          domain.BillItem
		itemType    string
		relatedKind sql.NullString
		relatedID   sql.NullInt32
	)
	err := row.Scan(&it.ID, &it.BillID, &it.Description, &it.Amount, &itemType,
		&relatedKind, &relatedID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Type = domain.BillItemType(itemType)
	if relatedKind.Valid && relatedID.Valid {
		it.Related = &domain.RelatedRef{Kind: domain.RelatedKind(relatedKind.String), ID: relatedID.Int32}
	}
	return &it, nil
}

func (r *billRepository) queryBills(ctx context.Context, db repository.DBTX, query string, args ...interface{}) ([]domain.Bill, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (r *billRepository) queryItems(ctx context.Context, db repository.DBTX, query string, args ...interface{}) ([]domain.BillItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.BillItem
	for rows.Next() {
		it, err := scanBillItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// Create inserts the bill and its items. A second bill for the same booking
// and period start fails with domain.ErrDuplicateBillPeriod.
func (r *billRepository) Create(ctx context.Context, db repository.DBTX, bill *domain.Bill) error {
	logger.EnterMethod("billRepository.Create", "bookingID", bill.BookingID, "periodStart", bill.PeriodStart)

	query := `
		INSERT INTO bills (
			booking_id, description, period_start, period_end, due_date,
			amount, paid_amount, settled_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := db.QueryRowContext(ctx, query,
		bill.BookingID, bill.Description, bill.PeriodStart, bill.PeriodEnd, bill.DueDate,
		bill.Amount, bill.PaidAmount, bill.SettledAt, now, now,
	).Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("billRepository.Create", err, "bookingID", bill.BookingID)
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.ErrDuplicateBillPeriod
		}
		return err
	}

	for i := range bill.Items {
		bill.Items[i].BillID = bill.ID
		if err := r.CreateItem(ctx, db, &bill.Items[i]); err != nil {
			logger.ExitMethodWithError("billRepository.Create", err, "billID", bill.ID)
			return err
		}
	}

	logger.ExitMethod("billRepository.Create", "billID", bill.ID, "items", len(bill.Items))
	return nil
}

func (r *billRepository) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Bill, error) {
	logger.EnterMethod("billRepository.GetByID", "billID", id)

	bill, err := scanBill(db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if err != nil {
		logger.ExitMethodWithError("billRepository.GetByID", err, "billID", id)
		return nil, notFound(err, domain.ErrBillNotFound)
	}

	items, err := r.ListItems(ctx, db, id)
	if err != nil {
		logger.ExitMethodWithError("billRepository.GetByID", err, "billID", id)
		return nil, err
	}
	bill.Items = items

	logger.ExitMethod("billRepository.GetByID", "billID", id)
	return bill, nil
}

func (r *billRepository) ListByBooking(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.Bill, error) {
	logger.EnterMethod("billRepository.ListByBooking", "bookingID", bookingID)

	bills, err := r.queryBills(ctx, db,
		`SELECT `+billColumns+` FROM bills WHERE booking_id = $1 ORDER BY period_start, id`, bookingID)
	if err != nil {
		logger.ExitMethodWithError("billRepository.ListByBooking", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("billRepository.ListByBooking", "count", len(bills))
	return bills, nil
}

// GetFirstByBooking locks and returns the earliest bill of the booking.
func (r *billRepository) GetFirstByBooking(ctx context.Context, db repository.DBTX, bookingID int32) (*domain.Bill, error) {
	logger.EnterMethod("billRepository.GetFirstByBooking", "bookingID", bookingID)

	query := `SELECT ` + billColumns + ` FROM bills WHERE booking_id = $1 ORDER BY period_start, id LIMIT 1 FOR UPDATE`
	bill, err := scanBill(db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		logger.ExitMethodWithError("billRepository.GetFirstByBooking", err, "bookingID", bookingID)
		return nil, notFound(err, domain.ErrBillNotFound)
	}

	logger.ExitMethod("billRepository.GetFirstByBooking", "billID", bill.ID)
	return bill, nil
}

// ListOutstandingForUpdate row-locks the booking's unpaid bills that are due
// by now, oldest due date first.
func (r *billRepository) ListOutstandingForUpdate(ctx context.Context, db repository.DBTX, bookingID int32, now time.Time) ([]domain.Bill, error) {
	logger.EnterMethod("billRepository.ListOutstandingForUpdate", "bookingID", bookingID)

	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE booking_id = $1 AND paid_amount < amount AND due_date <= $2
		ORDER BY due_date, id
		FOR UPDATE
	`
	bills, err := r.queryBills(ctx, db, query, bookingID, now)
	if err != nil {
		logger.ExitMethodWithError("billRepository.ListOutstandingForUpdate", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("billRepository.ListOutstandingForUpdate", "count", len(bills))
	return bills, nil
}

func (r *billRepository) ListOutstandingReminders(ctx context.Context, db repository.DBTX, now time.Time) ([]domain.BillReminder, error) {
	logger.EnterMethod("billRepository.ListOutstandingReminders")

	query := `
		SELECT bl.id, bl.booking_id, bl.description, bl.due_date, bl.amount - bl.paid_amount,
		       t.name, t.email, rm.room_number
		FROM bills bl
		JOIN bookings b ON b.id = bl.booking_id
		JOIN tenants t ON t.id = b.tenant_id
		JOIN rooms rm ON rm.id = b.room_id
		WHERE bl.paid_amount < bl.amount AND bl.due_date <= $1
		  AND t.email IS NOT NULL AND t.email <> ''
		ORDER BY bl.due_date, bl.id
	`
	rows, err := db.QueryContext(ctx, query, now)
	if err != nil {
		logger.ExitMethodWithError("billRepository.ListOutstandingReminders", err)
		return nil, err
	}
	defer rows.Close()

	var reminders []domain.BillReminder
	for rows.Next() {
		var rem domain.BillReminder
		if err := rows.Scan(&rem.BillID, &rem.BookingID, &rem.Description, &rem.DueDate, &rem.Outstanding,
			&rem.TenantName, &rem.TenantEmail, &rem.RoomNumber); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("billRepository.ListOutstandingReminders", "count", len(reminders))
	return reminders, nil
}

func (r *billRepository) UpdatePaidAmount(ctx context.Context, db repository.DBTX, id int32, paid domain.Money) error {
	logger.EnterMethod("billRepository.UpdatePaidAmount", "billID", id, "paid", paid)

	result, err := db.ExecContext(ctx, `UPDATE bills SET paid_amount = $1, updated_at = $2 WHERE id = $3`, paid, time.Now(), id)
	if err != nil {
		logger.ExitMethodWithError("billRepository.UpdatePaidAmount", err, "billID", id)
		if pgErrorCode(err) == pgCheckViolation {
			return domain.NewValidationError("paid_amount", "must stay between zero and the bill amount")
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBillNotFound
	}

	logger.ExitMethod("billRepository.UpdatePaidAmount", "billID", id)
	return nil
}

// SyncSettlement stamps settled_at on bills that are now fully paid and
// clears it on the ones that are not.
func (r *billRepository) SyncSettlement(ctx context.Context, db repository.DBTX, ids []int32, settledAt time.Time) error {
	logger.EnterMethod("billRepository.SyncSettlement", "count", len(ids))
	if len(ids) == 0 {
		logger.ExitMethod("billRepository.SyncSettlement", "count", 0)
		return nil
	}

	query := `
		UPDATE bills SET
			settled_at = CASE WHEN paid_amount >= amount THEN COALESCE(settled_at, $1) ELSE NULL END,
			updated_at = $2
		WHERE id = ANY($3)
	`
	billIDs := make([]int64, len(ids))
	for i, id := range ids {
		billIDs[i] = int64(id)
	}
	logger.DatabaseCall("UPDATE", "bills.settled_at", "count", len(ids))
	res, err := db.ExecContext(ctx, query, settledAt, time.Now(), pq.Array(billIDs))
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		logger.ExitMethodWithError("billRepository.SyncSettlement", err)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)

	logger.ExitMethod("billRepository.SyncSettlement", "count", len(ids))
	return nil
}

// RecomputeAmount sets the bill amount to the sum of its items and returns it.
// A total below the paid amount is rejected as a validation error.
func (r *billRepository) RecomputeAmount(ctx context.Context, db repository.DBTX, id int32) (domain.Money, error) {
	logger.EnterMethod("billRepository.RecomputeAmount", "billID", id)

	query := `
		WITH total AS (
			SELECT COALESCE(SUM(amount), 0) AS amount FROM bill_items WHERE bill_id = $1
		)
		UPDATE bills b SET
			amount = total.amount,
			settled_at = CASE WHEN b.paid_amount >= total.amount THEN COALESCE(b.settled_at, $2) ELSE NULL END,
			updated_at = $2
		FROM total
		WHERE b.id = $1
		RETURNING b.amount
	`
	var amount domain.Money
	err := db.QueryRowContext(ctx, query, id, time.Now()).Scan(&amount)
	if err != nil {
		logger.ExitMethodWithError("billRepository.RecomputeAmount", err, "billID", id)
		if pgErrorCode(err) == pgCheckViolation {
			return domain.Money{}, domain.NewValidationError("amount", "bill total cannot drop below the amount already paid")
		}
		return domain.Money{}, notFound(err, domain.ErrBillNotFound)
	}

	logger.ExitMethod("billRepository.RecomputeAmount", "billID", id, "amount", amount)
	return amount, nil
}

func (r *billRepository) CreateItem(ctx context.Context, db repository.DBTX, item *domain.BillItem) error {
	logger.EnterMethod("billRepository.CreateItem", "billID", item.BillID, "type", item.Type)

	query := `
		INSERT INTO bill_items (bill_id, description, amount, type, related_kind, related_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	kind, relatedID := domain.RelatedColumns(item.Related)
	now := time.Now()
	err := db.QueryRowContext(ctx, query,
		item.BillID, item.Description, item.Amount, item.Type, kind, relatedID, now, now,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("billRepository.CreateItem", err, "billID", item.BillID)
		return err
	}

	logger.ExitMethod("billRepository.CreateItem", "itemID", item.ID)
	return nil
}

func (r *billRepository) GetItem(ctx context.Context, db repository.DBTX, id int32) (*domain.BillItem, error) {
	logger.EnterMethod("billRepository.GetItem", "itemID", id)

	item, err := scanBillItem(db.QueryRowContext(ctx, `SELECT `+billItemColumns+` FROM bill_items WHERE id = $1`, id))
	if err != nil {
		logger.ExitMethodWithError("billRepository.GetItem", err, "itemID", id)
		return nil, notFound(err, domain.ErrBillItemNotFound)
	}

	logger.ExitMethod("billRepository.GetItem", "itemID", id)
	return item, nil
}

// UpdateItem rewrites description, amount, owning bill and back-reference.
func (r *billRepository) UpdateItem(ctx context.Context, db repository.DBTX, item *domain.BillItem) error {
	logger.EnterMethod("billRepository.UpdateItem", "itemID", item.ID)

	query := `
		UPDATE bill_items SET
			bill_id = $1, description = $2, amount = $3, related_kind = $4, related_id = $5, updated_at = $6
		WHERE id = $7
	`
	kind, relatedID := domain.RelatedColumns(item.Related)
	result, err := db.ExecContext(ctx, query, item.BillID, item.Description, item.Amount, kind, relatedID, time.Now(), item.ID)
	if err != nil {
		logger.ExitMethodWithError("billRepository.UpdateItem", err, "itemID", item.ID)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBillItemNotFound
	}

	logger.ExitMethod("billRepository.UpdateItem", "itemID", item.ID)
	return nil
}

func (r *billRepository) DeleteItem(ctx context.Context, db repository.DBTX, id int32) error {
	logger.EnterMethod("billRepository.DeleteItem", "itemID", id)

	result, err := db.ExecContext(ctx, `DELETE FROM bill_items WHERE id = $1`, id)
	if err != nil {
		logger.ExitMethodWithError("billRepository.DeleteItem", err, "itemID", id)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBillItemNotFound
	}

	logger.ExitMethod("billRepository.DeleteItem", "itemID", id)
	return nil
}

func (r *billRepository) ListItems(ctx context.Context, db repository.DBTX, billID int32) ([]domain.BillItem, error) {
	return r.queryItems(ctx, db, `SELECT `+billItemColumns+` FROM bill_items WHERE bill_id = $1 ORDER BY id`, billID)
}

func (r *billRepository) ListItemsByRelated(ctx context.Context, db repository.DBTX, ref domain.RelatedRef) ([]domain.BillItem, error) {
	logger.EnterMethod("billRepository.ListItemsByRelated", "kind", ref.Kind, "relatedID", ref.ID)

	items, err := r.queryItems(ctx, db,
		`SELECT `+billItemColumns+` FROM bill_items WHERE related_kind = $1 AND related_id = $2 ORDER BY id`,
		string(ref.Kind), ref.ID)
	if err != nil {
		logger.ExitMethodWithError("billRepository.ListItemsByRelated", err, "relatedID", ref.ID)
		return nil, err
	}

	logger.ExitMethod("billRepository.ListItemsByRelated", "count", len(items))
	return items, nil
}

// DeleteItemsByRelated removes every item pointing at ref and returns the
// distinct ids of the bills they belonged to.
func (r *billRepository) DeleteItemsByRelated(ctx context.Context, db repository.DBTX, ref domain.RelatedRef) ([]int32, error) {
	logger.EnterMethod("billRepository.DeleteItemsByRelated", "kind", ref.Kind, "relatedID", ref.ID)

	rows, err := db.QueryContext(ctx,
		`DELETE FROM bill_items WHERE related_kind = $1 AND related_id = $2 RETURNING bill_id`,
		string(ref.Kind), ref.ID)
	if err != nil {
		logger.ExitMethodWithError("billRepository.DeleteItemsByRelated", err, "relatedID", ref.ID)
		return nil, err
	}
	defer rows.Close()

	seen := make(map[int32]bool)
	var billIDs []int32
	for rows.Next() {
		var billID int32
		if err := rows.Scan(&billID); err != nil {
			return nil, err
		}
		if !seen[billID] {
			seen[billID] = true
			billIDs = append(billIDs, billID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("billRepository.DeleteItemsByRelated", "bills", len(billIDs))
	return billIDs, nil
}

