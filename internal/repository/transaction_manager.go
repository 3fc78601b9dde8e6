package repository

import (
	"context"
	"fmt"

	"tusai/internal/domain"
	"tusai/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// contextKey is the key type for context values set by this package.
type contextKey string

// TransactionContextKey carries the active *sqlx.Tx through a context.
const TransactionContextKey contextKey = "tx"

// txDBTX wraps *sqlx.Tx to satisfy DBTX: sqlx.Tx has no NamedQueryContext
// method, so it is delegated to the package-level sqlx.NamedQueryContext.
type txDBTX struct {
	*sqlx.Tx
}

func (t txDBTX) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return sqlx.NamedQueryContext(ctx, t.Tx, query, arg)
}

// WrapTx adapts a *sqlx.Tx to the DBTX interface.
func WrapTx(tx *sqlx.Tx) DBTX {
	return txDBTX{tx}
}

// GetExecutor returns the transaction from the context if one is active,
// otherwise the base DB.
func GetExecutor(ctx context.Context, db DBTX) DBTX {
	if tx := ctx.Value(TransactionContextKey); tx != nil {
		if sqlxTx, ok := tx.(*sqlx.Tx); ok {
			return txDBTX{sqlxTx}
		}
	}
	return db
}

// TransactionManagerAdapter implements domain.TransactionManager on sqlx.
type TransactionManagerAdapter struct {
	db *sqlx.DB
}

func NewTransactionManagerAdapter(db *sqlx.DB) domain.TransactionManager {
	return &TransactionManagerAdapter{db: db}
}

// WithTransaction runs fn inside a transaction. The transaction is exposed
// to repositories through the context, so fn can call repository methods
// unchanged.
func (tma *TransactionManagerAdapter) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tma.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				logger.Get().Error("failed to rollback transaction after panic", zap.Error(rollbackErr))
			}
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, TransactionContextKey, tx)

	if err := fn(txCtx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
