package database

import (
	"context"
	"fmt"

	"alterstory-server/shared/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PgTxManager выполняет функции в транзакциях pgxpool.
type PgTxManager struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.TxManager = (*PgTxManager)(nil)

// NewPgTxManager создает новый менеджер транзакций
func NewPgTxManager(db *pgxpool.Pool, logger *zap.Logger) *PgTxManager {
	return &PgTxManager{
		db:     db,
		logger: logger.Named("PgTxManager"),
	}
}

// WithTransaction выполняет функцию в транзакции с автоматическим rollback при ошибке
func (m *PgTxManager) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx interfaces.DBTX) error,
) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				m.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			m.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
