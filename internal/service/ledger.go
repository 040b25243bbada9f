package service

import (
	"context"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
)

type transactionService struct {
	txManager repository.TxManager
	txnRepo   repository.TransactionRepository
}

func NewTransactionService(txManager repository.TxManager, txnRepo repository.TransactionRepository) TransactionService {
	return &transactionService{txManager: txManager, txnRepo: txnRepo}
}

func validateTransaction(txn *domain.Transaction) error {
	if txn.LocationID <= 0 {
		return domain.NewValidationError("location_id", "is required")
	}
	if !txn.Type.Valid() {
		return domain.NewValidationError("type", "must be INCOME or EXPENSE")
	}
	if !txn.Amount.IsPositive() {
		return domain.NewValidationError("amount", "must be positive")
	}
	if err := domain.CheckMoneyScale("amount", txn.Amount); err != nil {
		return err
	}
	if txn.Category == "" {
		return domain.NewValidationError("category", "is required")
	}
	if txn.Date.IsZero() {
		return domain.NewValidationError("date", "is required")
	}
	if txn.Related != nil {
		return txn.Related.Validate()
	}
	return nil
}

func (s *transactionService) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return s.CreateTransactionTx(ctx, s.txManager.DB(), txn)
}

func (s *transactionService) CreateTransactionTx(ctx context.Context, tx repository.DBTX, txn *domain.Transaction) error {
	logger.EnterMethod("transactionService.CreateTransaction", "locationID", txn.LocationID, "type", txn.Type, "amount", txn.Amount)

	if err := validateTransaction(txn); err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err)
		return err
	}
	if err := s.txnRepo.Create(ctx, tx, txn); err != nil {
		logger.ExitMethodWithError("transactionService.CreateTransaction", err)
		return err
	}

	logger.ExitMethod("transactionService.CreateTransaction", "transactionID", txn.ID)
	return nil
}

func (s *transactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.NewValidationError("type", "must be INCOME or EXPENSE")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}
	return s.txnRepo.List(ctx, s.txManager.DB(), filter)
}

func (s *transactionService) FinancialSummary(ctx context.Context, locationID int32, from, to time.Time) (*domain.FinancialSummary, error) {
	logger.EnterMethod("transactionService.FinancialSummary", "locationID", locationID, "from", from, "to", to)

	if locationID <= 0 {
		return nil, domain.NewValidationError("location_id", "is required")
	}
	if to.Before(from) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}

	summary, err := s.txnRepo.Summarize(ctx, s.txManager.DB(), locationID, from, to)
	if err != nil {
		logger.ExitMethodWithError("transactionService.FinancialSummary", err, "locationID", locationID)
		return nil, err
	}

	logger.ExitMethod("transactionService.FinancialSummary", "net", summary.Net)
	return summary, nil
}
