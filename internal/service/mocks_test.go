package service

import (
	"context"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/repository"

	"github.com/stretchr/testify/mock"
)

// fakeDB stands in for a connection; the mocked repositories never touch it.
type fakeDB struct {
	repository.DBTX
}

// fakeTxManager runs fn inline and records how the transaction ended.
type fakeTxManager struct {
	commits   int
	rollbacks int
}

func (f *fakeTxManager) DB() repository.DBTX {
	return fakeDB{}
}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	if err := fn(ctx, fakeDB{}); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, db repository.DBTX, booking *domain.Booking) error {
	args := m.Called(ctx, db, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) LockByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListActiveRolling(ctx context.Context, db repository.DBTX, asOf time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, db, asOf)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) UpdateEndDate(ctx context.Context, db repository.DBTX, id int32, endDate *time.Time) error {
	args := m.Called(ctx, db, id, endDate)
	return args.Error(0)
}
func (m *MockBookingRepo) CreateAddon(ctx context.Context, db repository.DBTX, addon *domain.BookingAddon) error {
	args := m.Called(ctx, db, addon)
	return args.Error(0)
}
func (m *MockBookingRepo) ListAddons(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.BookingAddon, error) {
	args := m.Called(ctx, db, bookingID)
	return args.Get(0).([]domain.BookingAddon), args.Error(1)
}

// MockBillRepo
type MockBillRepo struct {
	mock.Mock
}

func (m *MockBillRepo) Create(ctx context.Context, db repository.DBTX, bill *domain.Bill) error {
	args := m.Called(ctx, db, bill)
	return args.Error(0)
}
func (m *MockBillRepo) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Bill, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}
func (m *MockBillRepo) ListByBooking(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.Bill, error) {
	args := m.Called(ctx, db, bookingID)
	return args.Get(0).([]domain.Bill), args.Error(1)
}
func (m *MockBillRepo) GetFirstByBooking(ctx context.Context, db repository.DBTX, bookingID int32) (*domain.Bill, error) {
	args := m.Called(ctx, db, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}
func (m *MockBillRepo) ListOutstandingForUpdate(ctx context.Context, db repository.DBTX, bookingID int32, now time.Time) ([]domain.Bill, error) {
	args := m.Called(ctx, db, bookingID, now)
	return args.Get(0).([]domain.Bill), args.Error(1)
}
func (m *MockBillRepo) ListOutstandingReminders(ctx context.Context, db repository.DBTX, now time.Time) ([]domain.BillReminder, error) {
	args := m.Called(ctx, db, now)
	return args.Get(0).([]domain.BillReminder), args.Error(1)
}
func (m *MockBillRepo) UpdatePaidAmount(ctx context.Context, db repository.DBTX, id int32, paid domain.Money) error {
	args := m.Called(ctx, db, id, paid)
	return args.Error(0)
}
func (m *MockBillRepo) SyncSettlement(ctx context.Context, db repository.DBTX, ids []int32, settledAt time.Time) error {
	args := m.Called(ctx, db, ids, settledAt)
	return args.Error(0)
}
func (m *MockBillRepo) RecomputeAmount(ctx context.Context, db repository.DBTX, id int32) (domain.Money, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(domain.Money), args.Error(1)
}
func (m *MockBillRepo) CreateItem(ctx context.Context, db repository.DBTX, item *domain.BillItem) error {
	args := m.Called(ctx, db, item)
	return args.Error(0)
}
func (m *MockBillRepo) GetItem(ctx context.Context, db repository.DBTX, id int32) (*domain.BillItem, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillItem), args.Error(1)
}
func (m *MockBillRepo) UpdateItem(ctx context.Context, db repository.DBTX, item *domain.BillItem) error {
	args := m.Called(ctx, db, item)
	return args.Error(0)
}
func (m *MockBillRepo) DeleteItem(ctx context.Context, db repository.DBTX, id int32) error {
	args := m.Called(ctx, db, id)
	return args.Error(0)
}
func (m *MockBillRepo) ListItems(ctx context.Context, db repository.DBTX, billID int32) ([]domain.BillItem, error) {
	args := m.Called(ctx, db, billID)
	return args.Get(0).([]domain.BillItem), args.Error(1)
}
func (m *MockBillRepo) ListItemsByRelated(ctx context.Context, db repository.DBTX, ref domain.RelatedRef) ([]domain.BillItem, error) {
	args := m.Called(ctx, db, ref)
	return args.Get(0).([]domain.BillItem), args.Error(1)
}
func (m *MockBillRepo) DeleteItemsByRelated(ctx context.Context, db repository.DBTX, ref domain.RelatedRef) ([]int32, error) {
	args := m.Called(ctx, db, ref)
	return args.Get(0).([]int32), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, db repository.DBTX, payment *domain.Payment) error {
	args := m.Called(ctx, db, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Payment, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) Update(ctx context.Context, db repository.DBTX, payment *domain.Payment) error {
	args := m.Called(ctx, db, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListByBooking(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.Payment, error) {
	args := m.Called(ctx, db, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) CreateAllocation(ctx context.Context, db repository.DBTX, alloc *domain.PaymentBill) error {
	args := m.Called(ctx, db, alloc)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListAllocations(ctx context.Context, db repository.DBTX, paymentID int32) ([]domain.PaymentBill, error) {
	args := m.Called(ctx, db, paymentID)
	return args.Get(0).([]domain.PaymentBill), args.Error(1)
}

// MockDepositRepo
type MockDepositRepo struct {
	mock.Mock
}

func (m *MockDepositRepo) Create(ctx context.Context, db repository.DBTX, deposit *domain.Deposit) error {
	args := m.Called(ctx, db, deposit)
	return args.Error(0)
}
func (m *MockDepositRepo) GetByID(ctx context.Context, db repository.DBTX, id int32) (*domain.Deposit, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositRepo) GetByIDForUpdate(ctx context.Context, db repository.DBTX, id int32) (*domain.Deposit, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockDepositRepo) Update(ctx context.Context, db repository.DBTX, deposit *domain.Deposit) error {
	args := m.Called(ctx, db, deposit)
	return args.Error(0)
}
func (m *MockDepositRepo) Delete(ctx context.Context, db repository.DBTX, id int32) error {
	args := m.Called(ctx, db, id)
	return args.Error(0)
}
func (m *MockDepositRepo) ListByBooking(ctx context.Context, db repository.DBTX, bookingID int32) ([]domain.Deposit, error) {
	args := m.Called(ctx, db, bookingID)
	return args.Get(0).([]domain.Deposit), args.Error(1)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, db repository.DBTX, txn *domain.Transaction) error {
	args := m.Called(ctx, db, txn)
	return args.Error(0)
}
func (m *MockTransactionRepo) List(ctx context.Context, db repository.DBTX, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, db, filter)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) Summarize(ctx context.Context, db repository.DBTX, locationID int32, from, to time.Time) (*domain.FinancialSummary, error) {
	args := m.Called(ctx, db, locationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialSummary), args.Error(1)
}

// MockObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}
func (m *MockObjectStorage) GetObject(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockObjectStorage) DeleteObject(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func money(s string) domain.Money {
	return domain.MustMoney(s)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// moneyArg matches a Money argument by value rather than representation.
func moneyArg(s string) interface{} {
	want := money(s)
	return mock.MatchedBy(func(got domain.Money) bool { return got.Equal(want) })
}
