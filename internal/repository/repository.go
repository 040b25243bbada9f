package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx. Every write takes one so a
// caller that already holds a transaction can pass it down.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxManager runs fn inside one database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type TxManager interface {
	DB() DBTX
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

type BookingRepository interface {
	Create(ctx context.Context, db DBTX, booking *domain.Booking) error
	GetByID(ctx context.Context, db DBTX, id int32) (*domain.Booking, error)
	LockByID(ctx context.Context, db DBTX, id int32) (*domain.Booking, error)
	ListActiveRolling(ctx context.Context, db DBTX, asOf time.Time) ([]domain.Booking, error)
	UpdateEndDate(ctx context.Context, db DBTX, id int32, endDate *time.Time) error

	// Add-ons
	CreateAddon(ctx context.Context, db DBTX, addon *domain.BookingAddon) error
	ListAddons(ctx context.Context, db DBTX, bookingID int32) ([]domain.BookingAddon, error)
}

type BillRepository interface {
	Create(ctx context.Context, db DBTX, bill *domain.Bill) error
	GetByID(ctx context.Context, db DBTX, id int32) (*domain.Bill, error)
	ListByBooking(ctx context.Context, db DBTX, bookingID int32) ([]domain.Bill, error)
	GetFirstByBooking(ctx context.Context, db DBTX, bookingID int32) (*domain.Bill, error)
	ListOutstandingForUpdate(ctx context.Context, db DBTX, bookingID int32, now time.Time) ([]domain.Bill, error)
	ListOutstandingReminders(ctx context.Context, db DBTX, now time.Time) ([]domain.BillReminder, error)
	UpdatePaidAmount(ctx context.Context, db DBTX, id int32, paid domain.Money) error
	SyncSettlement(ctx context.Context, db DBTX, ids []int32, settledAt time.Time) error
	RecomputeAmount(ctx context.Context, db DBTX, id int32) (domain.Money, error)

	// Items
	CreateItem(ctx context.Context, db DBTX, item *domain.BillItem) error
	GetItem(ctx context.Context, db DBTX, id int32) (*domain.BillItem, error)
	UpdateItem(ctx context.Context, db DBTX, item *domain.BillItem) error
	DeleteItem(ctx context.Context, db DBTX, id int32) error
	ListItems(ctx context.Context, db DBTX, billID int32) ([]domain.BillItem, error)
	ListItemsByRelated(ctx context.Context, db DBTX, ref domain.RelatedRef) ([]domain.BillItem, error)
	DeleteItemsByRelated(ctx context.Context, db DBTX, ref domain.RelatedRef) ([]int32, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, db DBTX, payment *domain.Payment) error
	GetByID(ctx context.Context, db DBTX, id int32) (*domain.Payment, error)
	Update(ctx context.Context, db DBTX, payment *domain.Payment) error
	ListByBooking(ctx context.Context, db DBTX, bookingID int32) ([]domain.Payment, error)

	// Allocation rows
	CreateAllocation(ctx context.Context, db DBTX, alloc *domain.PaymentBill) error
	ListAllocations(ctx context.Context, db DBTX, paymentID int32) ([]domain.PaymentBill, error)
}

type DepositRepository interface {
	Create(ctx context.Context, db DBTX, deposit *domain.Deposit) error
	GetByID(ctx context.Context, db DBTX, id int32) (*domain.Deposit, error)
	GetByIDForUpdate(ctx context.Context, db DBTX, id int32) (*domain.Deposit, error)
	Update(ctx context.Context, db DBTX, deposit *domain.Deposit) error
	Delete(ctx context.Context, db DBTX, id int32) error
	ListByBooking(ctx context.Context, db DBTX, bookingID int32) ([]domain.Deposit, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, db DBTX, txn *domain.Transaction) error
	List(ctx context.Context, db DBTX, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Summarize(ctx context.Context, db DBTX, locationID int32, from, to time.Time) (*domain.FinancialSummary, error)
}
