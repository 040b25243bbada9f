package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	svc         *paymentService
	txm         *fakeTxManager
	paymentRepo *MockPaymentRepo
	billRepo    *MockBillRepo
	bookingRepo *MockBookingRepo
	store       *MockObjectStorage
}

var paymentNow = time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC)

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		txm:         &fakeTxManager{},
		paymentRepo: new(MockPaymentRepo),
		billRepo:    new(MockBillRepo),
		bookingRepo: new(MockBookingRepo),
		store:       new(MockObjectStorage),
	}
	f.svc = NewPaymentService(f.txm, f.paymentRepo, f.billRepo, f.bookingRepo, f.store).(*paymentService)
	f.svc.now = fixedClock(paymentNow)
	return f
}

// January has 50 outstanding, February 100.
func outstandingBills() []domain.Bill {
	return []domain.Bill{
		{ID: 1, BookingID: 5, DueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: money("80"), PaidAmount: money("30")},
		{ID: 2, BookingID: 5, DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: money("100"), PaidAmount: money("0")},
	}
}

func paymentRequest(amount string) SubmitPaymentRequest {
	return SubmitPaymentRequest{
		BookingID:   5,
		Amount:      money(amount),
		PaymentDate: time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC),
	}
}

func (f *paymentFixture) expectPaymentInsert() {
	f.bookingRepo.On("GetByID", mock.Anything, mock.Anything, int32(5)).Return(&domain.Booking{ID: 5}, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Payment")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*domain.Payment).ID = 55
		}).Return(nil)
	f.billRepo.On("ListOutstandingForUpdate", mock.Anything, mock.Anything, int32(5), paymentNow).Return(outstandingBills(), nil)
}

func allocationFor(billID int32, amount string) interface{} {
	want := money(amount)
	return mock.MatchedBy(func(a *domain.PaymentBill) bool {
		return a.PaymentID == 55 && a.BillID == billID && a.Amount.Equal(want)
	})
}

func TestSubmitPayment_SpreadsOldestFirst(t *testing.T) {
	f := newPaymentFixture()
	f.expectPaymentInsert()
	f.billRepo.On("UpdatePaidAmount", mock.Anything, mock.Anything, int32(1), moneyArg("80")).Return(nil)
	f.billRepo.On("UpdatePaidAmount", mock.Anything, mock.Anything, int32(2), moneyArg("70")).Return(nil)
	f.paymentRepo.On("CreateAllocation", mock.Anything, mock.Anything, allocationFor(1, "50")).Return(nil)
	f.paymentRepo.On("CreateAllocation", mock.Anything, mock.Anything, allocationFor(2, "70")).Return(nil)
	f.billRepo.On("SyncSettlement", mock.Anything, mock.Anything, []int32{1, 2}, paymentRequest("120").PaymentDate).Return(nil)

	payment, err := f.svc.SubmitPayment(context.Background(), paymentRequest("120"))

	require.NoError(t, err)
	assert.Equal(t, int32(55), payment.ID)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	assert.Nil(t, payment.ProofRef)
	assert.Equal(t, 1, f.txm.commits)
	f.billRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
}

func TestSubmitPayment_ExactAmountSettlesEverything(t *testing.T) {
	f := newPaymentFixture()
	f.expectPaymentInsert()
	f.billRepo.On("UpdatePaidAmount", mock.Anything, mock.Anything, int32(1), moneyArg("80")).Return(nil)
	f.billRepo.On("UpdatePaidAmount", mock.Anything, mock.Anything, int32(2), moneyArg("100")).Return(nil)
	f.paymentRepo.On("CreateAllocation", mock.Anything, mock.Anything, allocationFor(1, "50")).Return(nil)
	f.paymentRepo.On("CreateAllocation", mock.Anything, mock.Anything, allocationFor(2, "100")).Return(nil)
	f.billRepo.On("SyncSettlement", mock.Anything, mock.Anything, []int32{1, 2}, mock.Anything).Return(nil)

	_, err := f.svc.SubmitPayment(context.Background(), paymentRequest("150"))

	require.NoError(t, err)
	f.billRepo.AssertNumberOfCalls(t, "UpdatePaidAmount", 2)
	f.paymentRepo.AssertNumberOfCalls(t, "CreateAllocation", 2)
}

func TestSubmitPayment_OverpaymentRollsBack(t *testing.T) {
	f := newPaymentFixture()
	f.expectPaymentInsert()

	payment, err := f.svc.SubmitPayment(context.Background(), paymentRequest("200"))

	require.Error(t, err)
	assert.Nil(t, payment)
	assert.ErrorIs(t, err, domain.ErrReconciliationMismatch)
	var mismatch *domain.ReconciliationMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, int32(5), mismatch.BookingID)
	assert.True(t, mismatch.Balance.Equal(money("50")))

	assert.Equal(t, 1, f.txm.rollbacks)
	assert.Equal(t, 0, f.txm.commits)
	f.billRepo.AssertNotCalled(t, "UpdatePaidAmount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.billRepo.AssertNotCalled(t, "SyncSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.paymentRepo.AssertNotCalled(t, "CreateAllocation", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitPayment_NothingOutstanding(t *testing.T) {
	f := newPaymentFixture()
	f.bookingRepo.On("GetByID", mock.Anything, mock.Anything, int32(5)).Return(&domain.Booking{ID: 5}, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.billRepo.On("ListOutstandingForUpdate", mock.Anything, mock.Anything, int32(5), paymentNow).Return([]domain.Bill{}, nil)

	_, err := f.svc.SubmitPayment(context.Background(), paymentRequest("10"))

	assert.ErrorIs(t, err, domain.ErrReconciliationMismatch)
	assert.Equal(t, 1, f.txm.rollbacks)
}

func TestSubmitPayment_StoresProof(t *testing.T) {
	f := newPaymentFixture()
	f.expectPaymentInsert()
	f.store.On("PutObject", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "payment-proofs/5/") && strings.HasSuffix(key, ".png")
	}), []byte("img"), "image/png").Return("payment-proofs/5/abc.png", nil)
	f.billRepo.On("UpdatePaidAmount", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.paymentRepo.On("CreateAllocation", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.billRepo.On("SyncSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := paymentRequest("150")
	req.Proof = &ProofFile{Filename: "Receipt.PNG", ContentType: "image/png", Data: []byte("img")}
	payment, err := f.svc.SubmitPayment(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, payment.ProofRef)
	assert.Equal(t, "payment-proofs/5/abc.png", *payment.ProofRef)
	f.store.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestSubmitPayment_RemovesProofOnFailure(t *testing.T) {
	f := newPaymentFixture()
	f.expectPaymentInsert()
	f.store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("payment-proofs/5/abc.png", nil)
	f.store.On("DeleteObject", mock.Anything, "payment-proofs/5/abc.png").Return(nil)

	req := paymentRequest("200")
	req.Proof = &ProofFile{Filename: "receipt.png", ContentType: "image/png", Data: []byte("img")}
	_, err := f.svc.SubmitPayment(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrReconciliationMismatch)
	f.store.AssertCalled(t, "DeleteObject", mock.Anything, "payment-proofs/5/abc.png")
}

func TestSubmitPayment_StorageFailure(t *testing.T) {
	f := newPaymentFixture()
	f.bookingRepo.On("GetByID", mock.Anything, mock.Anything, int32(5)).Return(&domain.Booking{ID: 5}, nil)
	f.store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	req := paymentRequest("150")
	req.Proof = &ProofFile{Filename: "receipt.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
	_, err := f.svc.SubmitPayment(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, f.txm.commits+f.txm.rollbacks)
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitPayment_UnknownBooking(t *testing.T) {
	f := newPaymentFixture()
	f.bookingRepo.On("GetByID", mock.Anything, mock.Anything, int32(5)).Return(nil, domain.ErrBookingNotFound)

	_, err := f.svc.SubmitPayment(context.Background(), paymentRequest("150"))

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	f.store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitPayment_Validation(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(r *SubmitPaymentRequest)
		field string
	}{
		{"Missing booking", func(r *SubmitPaymentRequest) { r.BookingID = 0 }, "booking_id"},
		{"Zero amount", func(r *SubmitPaymentRequest) { r.Amount = money("0") }, "amount"},
		{"Negative amount", func(r *SubmitPaymentRequest) { r.Amount = money("-5") }, "amount"},
		{"Sub-cent amount", func(r *SubmitPaymentRequest) { r.Amount = money("10.005") }, "amount"},
		{"Missing date", func(r *SubmitPaymentRequest) { r.PaymentDate = time.Time{} }, "payment_date"},
		{"Unknown status", func(r *SubmitPaymentRequest) { r.Status = "LOST" }, "status"},
		{"Empty proof", func(r *SubmitPaymentRequest) { r.Proof = &ProofFile{Filename: "x.png"} }, "proof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture()
			req := paymentRequest("10")
			tt.mod(&req)

			_, err := f.svc.SubmitPayment(context.Background(), req)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			f.bookingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitPayment_RejectsSubCentAmount(t *testing.T) {
	for _, amount := range []string{"149.996", "150.004"} {
		t.Run(amount, func(t *testing.T) {
			f := newPaymentFixture()
			f.expectPaymentInsert()

			payment, err := f.svc.SubmitPayment(context.Background(), paymentRequest(amount))

			assert.Nil(t, payment)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.NotErrorIs(t, err, domain.ErrReconciliationMismatch)
			assert.Equal(t, 0, f.txm.commits)
			assert.Equal(t, 0, f.txm.rollbacks)
			f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			f.billRepo.AssertNotCalled(t, "UpdatePaidAmount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdatePayment_RejectsSubCentAmount(t *testing.T) {
	f := newPaymentFixture()
	amount := money("99.999")

	_, err := f.svc.UpdatePayment(context.Background(), 55, UpdatePaymentRequest{Amount: &amount})

	assert.ErrorIs(t, err, domain.ErrValidation)
	f.paymentRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePayment_DoesNotReallocate(t *testing.T) {
	f := newPaymentFixture()
	existing := &domain.Payment{ID: 55, BookingID: 5, Amount: money("150"), Status: domain.PaymentStatusPending}
	f.paymentRepo.On("GetByID", mock.Anything, mock.Anything, int32(55)).Return(existing, nil)
	f.paymentRepo.On("Update", mock.Anything, mock.Anything, existing).Return(nil)

	status := domain.PaymentStatusCompleted
	amount := money("160")
	payment, err := f.svc.UpdatePayment(context.Background(), 55, UpdatePaymentRequest{Amount: &amount, Status: &status})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	assert.True(t, payment.Amount.Equal(money("160")))
	f.billRepo.AssertNotCalled(t, "ListOutstandingForUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.billRepo.AssertNotCalled(t, "UpdatePaidAmount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePayment_NotFound(t *testing.T) {
	f := newPaymentFixture()
	f.paymentRepo.On("GetByID", mock.Anything, mock.Anything, int32(9)).Return(nil, domain.ErrPaymentNotFound)

	_, err := f.svc.UpdatePayment(context.Background(), 9, UpdatePaymentRequest{})

	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	assert.Equal(t, 1, f.txm.rollbacks)
}

func TestGetPaymentProof(t *testing.T) {
	t.Run("Returns stored bytes", func(t *testing.T) {
		f := newPaymentFixture()
		ref := "payment-proofs/5/abc.png"
		f.paymentRepo.On("GetByID", mock.Anything, mock.Anything, int32(55)).Return(&domain.Payment{ID: 55, ProofRef: &ref}, nil)
		f.store.On("GetObject", mock.Anything, ref).Return([]byte("img"), nil)

		data, gotRef, err := f.svc.GetPaymentProof(context.Background(), 55)

		require.NoError(t, err)
		assert.Equal(t, []byte("img"), data)
		assert.Equal(t, ref, gotRef)
	})

	t.Run("Payment without proof", func(t *testing.T) {
		f := newPaymentFixture()
		f.paymentRepo.On("GetByID", mock.Anything, mock.Anything, int32(55)).Return(&domain.Payment{ID: 55}, nil)

		_, _, err := f.svc.GetPaymentProof(context.Background(), 55)

		assert.Error(t, err)
		f.store.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
	})

	t.Run("Backend failure is a storage error", func(t *testing.T) {
		f := newPaymentFixture()
		ref := "payment-proofs/5/abc.png"
		f.paymentRepo.On("GetByID", mock.Anything, mock.Anything, int32(55)).Return(&domain.Payment{ID: 55, ProofRef: &ref}, nil)
		f.store.On("GetObject", mock.Anything, ref).Return(nil, errors.New("io error"))

		_, _, err := f.svc.GetPaymentProof(context.Background(), 55)

		assert.ErrorIs(t, err, domain.ErrStorage)
	})
}
