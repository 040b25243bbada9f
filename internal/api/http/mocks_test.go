package http

import (
	"context"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
	"github.com/RaymondSalim/hms-sub002/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockBookingService struct{ mock.Mock }

func (m *MockBookingService) CreateBooking(ctx context.Context, req service.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ScheduleEndOfStay(ctx context.Context, bookingID int32, endDate time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockBillService struct{ mock.Mock }

func (m *MockBillService) bill(args mock.Arguments) (*domain.Bill, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillService) bills(args mock.Arguments) ([]domain.Bill, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bill), args.Error(1)
}

func (m *MockBillService) GetBill(ctx context.Context, id int32) (*domain.Bill, error) {
	return m.bill(m.Called(ctx, id))
}

func (m *MockBillService) ListBillsByBooking(ctx context.Context, bookingID int32) ([]domain.Bill, error) {
	return m.bills(m.Called(ctx, bookingID))
}

func (m *MockBillService) ListOutstandingBills(ctx context.Context, bookingID int32) ([]domain.Bill, error) {
	return m.bills(m.Called(ctx, bookingID))
}

func (m *MockBillService) AddBillItem(ctx context.Context, billID int32, description string, amount domain.Money) (*domain.Bill, error) {
	return m.bill(m.Called(ctx, billID, description, amount))
}

func (m *MockBillService) UpdateBillItem(ctx context.Context, itemID int32, description string, amount domain.Money) (*domain.Bill, error) {
	return m.bill(m.Called(ctx, itemID, description, amount))
}

func (m *MockBillService) DeleteBillItem(ctx context.Context, itemID int32) (*domain.Bill, error) {
	return m.bill(m.Called(ctx, itemID))
}

func (m *MockBillService) GenerateNextBill(ctx context.Context, bookingID int32, asOf time.Time) (*domain.Bill, error) {
	return m.bill(m.Called(ctx, bookingID, asOf))
}

func (m *MockBillService) GenerateNextBillTx(ctx context.Context, tx repository.DBTX, booking *domain.Booking, asOf time.Time) (*domain.Bill, error) {
	return m.bill(m.Called(ctx, tx, booking, asOf))
}

type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) SubmitPayment(ctx context.Context, req service.SubmitPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) UpdatePayment(ctx context.Context, id int32, req service.UpdatePaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id int32) (*domain.Payment, []domain.PaymentBill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Payment), args.Get(1).([]domain.PaymentBill), args.Error(2)
}

func (m *MockPaymentService) ListPaymentsByBooking(ctx context.Context, bookingID int32) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPaymentProof(ctx context.Context, id int32) ([]byte, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

type MockDepositService struct{ mock.Mock }

func (m *MockDepositService) deposit(args mock.Arguments) (*domain.Deposit, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}

func (m *MockDepositService) CreateDeposit(ctx context.Context, bookingID int32, amount domain.Money) (*domain.Deposit, error) {
	return m.deposit(m.Called(ctx, bookingID, amount))
}

func (m *MockDepositService) CreateDepositTx(ctx context.Context, tx repository.DBTX, bookingID int32, amount domain.Money) (*domain.Deposit, error) {
	return m.deposit(m.Called(ctx, tx, bookingID, amount))
}

func (m *MockDepositService) GetDeposit(ctx context.Context, id int32) (*domain.Deposit, error) {
	return m.deposit(m.Called(ctx, id))
}

func (m *MockDepositService) UpdateDeposit(ctx context.Context, id int32, amount domain.Money) (*domain.Deposit, error) {
	return m.deposit(m.Called(ctx, id, amount))
}

func (m *MockDepositService) UpdateDepositStatus(ctx context.Context, id int32, status domain.DepositStatus, refundedAmount *domain.Money) (*domain.Deposit, error) {
	return m.deposit(m.Called(ctx, id, status, refundedAmount))
}

func (m *MockDepositService) DeleteDeposit(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}

type MockTransactionService struct{ mock.Mock }

func (m *MockTransactionService) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *MockTransactionService) CreateTransactionTx(ctx context.Context, tx repository.DBTX, txn *domain.Transaction) error {
	return m.Called(ctx, tx, txn).Error(0)
}

func (m *MockTransactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionService) FinancialSummary(ctx context.Context, locationID int32, from, to time.Time) (*domain.FinancialSummary, error) {
	args := m.Called(ctx, locationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialSummary), args.Error(1)
}

type MockBillingJob struct{ mock.Mock }

func (m *MockBillingJob) GenerateRecurringBills(ctx context.Context, asOf time.Time) (*domain.BillingRunReport, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingRunReport), args.Error(1)
}
