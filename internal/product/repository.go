package product

import (
	"context"
	"database/sql"
	"errors"

	"catering-be/internal/db"
	"catering-be/internal/logger"

	"go.uber.org/zap"
)

// Repository is the catalog's stock store. Stock is only written through
// DecrementStock after LockStock has taken the row lock in the same
// transaction.
type Repository interface {
	LockStock(ctx context.Context, productID int64) (int, error)
	DecrementStock(ctx context.Context, productID int64, qty int) error
}

type repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repository{q: q}
}

// LockStock reads the current stock with an exclusive row lock held until
// the surrounding transaction ends.
func (r *repository) LockStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := r.q.QueryRowContext(ctx, `
		SELECT stock
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID).Scan(&stock)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to lock product stock",
			zap.String("layer", "repository"),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return 0, err
	}

	return stock, nil
}

func (r *repository) DecrementStock(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, qty, productID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}

	return nil
}
