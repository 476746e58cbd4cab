package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catering-be/internal/logger"

	"go.uber.org/zap"
)

var ErrCommit = errors.New("failed to commit transaction")

// WithTx runs fn inside a single transaction. The transaction is committed
// only when fn returns nil; every other exit path rolls it back.
func WithTx(ctx context.Context, database *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "db"),
		zap.String("method", "WithTx"),
	)

	tx, err := database.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// an expired context has already rolled the transaction back
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
			return
		}
		log.Debug("transaction rolled back")
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	committed = true
	log.Debug("transaction committed")
	return nil
}
