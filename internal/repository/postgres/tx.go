package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/domain"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
)

// TxManager opens read-committed transactions on db. A positive timeout bounds
// every transaction; exceeding it is reported as domain.ErrTransactionTimeout.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTxManager(db *sql.DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

func (m *TxManager) DB() repository.DBTX {
	return m.db
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return timeoutError(ctx, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return timeoutError(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return timeoutError(ctx, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func timeoutError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrTransactionTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTransactionTimeout, err)
	}
	return err
}
