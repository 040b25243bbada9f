package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
)

type transactionRepository struct{}

func NewTransactionRepository() repository.TransactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(ctx context.Context, db repository.DBTX, txn *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Create", "locationID", txn.LocationID, "type", txn.Type, "amount", txn.Amount)

	query := `
		INSERT INTO transactions (location_id, amount, type, category, description, date, related_kind, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	kind, relatedID := domain.RelatedColumns(txn.Related)
	err := db.QueryRowContext(ctx, query,
		txn.LocationID, txn.Amount, txn.Type, txn.Category, txn.Description, txn.Date, kind, relatedID, time.Now(),
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Create", err, "locationID", txn.LocationID)
		return err
	}

	logger.ExitMethod("transactionRepository.Create", "transactionID", txn.ID)
	return nil
}

func (r *transactionRepository) List(ctx context.Context, db repository.DBTX, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	logger.EnterMethod("transactionRepository.List", "locationID", filter.LocationID, "type", filter.Type)

	query := `
		SELECT id, location_id, amount, type, category, COALESCE(description, ''), date, related_kind, related_id, created_at
		FROM transactions
		WHERE 1 = 1
	`
	var args []interface{}
	argIndex := 1

	if filter.LocationID > 0 {
		query += fmt.Sprintf(" AND location_id = $%d", argIndex)
		args = append(args, filter.LocationID)
		argIndex++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, string(filter.Type))
		argIndex++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}
	if filter.Related != nil {
		query += fmt.Sprintf(" AND related_kind = $%d AND related_id = $%d", argIndex, argIndex+1)
		args = append(args, string(filter.Related.Kind), filter.Related.ID)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.List", err)
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			t           domain.Transaction
			txnType     string
			relatedKind sql.NullString
			relatedID   sql.NullInt32
		)
		if err := rows.Scan(&t.ID, &t.LocationID, &t.Amount, &txnType, &t.Category, &t.Description, &t.Date,
			&relatedKind, &relatedID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = domain.TransactionType(txnType)
		if relatedKind.Valid && relatedID.Valid {
			t.Related = &domain.RelatedRef{Kind: domain.RelatedKind(relatedKind.String), ID: relatedID.Int32}
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("transactionRepository.List", "count", len(txns))
	return txns, nil
}

// Summarize totals income and expense for a location over [from, to].
func (r *transactionRepository) Summarize(ctx context.Context, db repository.DBTX, locationID int32, from, to time.Time) (*domain.FinancialSummary, error) {
	logger.EnterMethod("transactionRepository.Summarize", "locationID", locationID, "from", from, "to", to)

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE'), 0)
		FROM transactions
		WHERE location_id = $1 AND date >= $2 AND date <= $3
	`
	summary := &domain.FinancialSummary{LocationID: locationID, From: from, To: to}
	if err := db.QueryRowContext(ctx, query, locationID, from, to).Scan(&summary.Income, &summary.Expense); err != nil {
		logger.ExitMethodWithError("transactionRepository.Summarize", err, "locationID", locationID)
		return nil, err
	}
	summary.Net = summary.Income.Sub(summary.Expense)

	logger.ExitMethod("transactionRepository.Summarize", "locationID", locationID, "net", summary.Net)
	return summary, nil
}
