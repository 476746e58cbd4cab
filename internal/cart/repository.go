package cart

import (
	"context"
	"fmt"

	"catering-be/internal/db"
	"catering-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetCart(ctx context.Context, userID uint) ([]CartItem, error)
	ClearCart(ctx context.Context, userID uint) (int64, error)
}

type repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repository{q: q}
}

func (r *repository) GetCart(ctx context.Context, userID uint) ([]CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCart"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.q.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.product_id, p.name, p.price, c.quantity, c.created_at
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC
	`, userID)
	if err != nil {
		log.Error("failed to query cart", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedGetCartRows, err)
	}
	defer rows.Close()

	items := []CartItem{}
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(
			&it.ID,
			&it.UserID,
			&it.ProductID,
			&it.ProductName,
			&it.Price,
			&it.Quantity,
			&it.CreatedAt,
		); err != nil {
			log.Error("failed to scan cart row", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrFailedGetCartRows, err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedGetCartRows, err)
	}

	return items, nil
}

// ClearCart deletes every cart row of the user, including products that were
// not part of the checkout. An already empty cart is not an error.
func (r *repository) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFailedClearCart, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFailedClearCart, err)
	}

	return affected, nil
}
