package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catering-be/internal/db"
	"catering-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	InsertOrder(ctx context.Context, o *Order) error
	InsertOrderItem(ctx context.Context, item *OrderItem) error
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, error)
	GetOrderDetail(ctx context.Context, orderID int64) (*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, update StatusUpdate) (*Order, error)
}

type repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repository{q: q}
}

const orderColumns = `
	o.id, o.user_id, o.total_amount, o.payment_method,
	o.order_status, o.payment_status, o.payment_proof,
	o.desired_completion_date, o.delivery_option, o.delivery_address,
	o.phone_number, o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.OrderStatus,
		&o.PaymentStatus,
		&o.PaymentProof,
		&o.DesiredCompletionDate,
		&o.DeliveryOption,
		&o.DeliveryAddress,
		&o.PhoneNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// InsertOrder stores o and fills in the generated id, the stored statuses and
// the creation timestamp.
func (r *repository) InsertOrder(ctx context.Context, o *Order) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, total_amount, payment_method,
			order_status, payment_status, payment_proof,
			desired_completion_date, delivery_option, delivery_address,
			phone_number
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, order_status, payment_status, created_at
	`,
		o.UserID,
		o.TotalAmount,
		o.PaymentMethod,
		o.OrderStatus,
		o.PaymentStatus,
		o.PaymentProof,
		o.DesiredCompletionDate,
		o.DeliveryOption,
		o.DeliveryAddress,
		o.PhoneNumber,
	).Scan(&o.ID, &o.OrderStatus, &o.PaymentStatus, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	o.UpdatedAt = o.CreatedAt
	return nil
}

func (r *repository) InsertOrderItem(ctx context.Context, item *OrderItem) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.Price,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *repository) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
		zap.Int("limit", filter.Limit),
		zap.Int("offset", filter.Offset),
	)

	query := `SELECT` + orderColumns + ` FROM orders o WHERE 1=1`

	args := []any{}
	argIndex := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND o.user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND o.order_status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += " ORDER BY o.created_at DESC, o.id DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	log.Debug("executing list orders query", zap.String("query", query))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return orders, nil
}

func (r *repository) GetOrderDetail(ctx context.Context, orderID int64) (*Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx,
		`SELECT`+orderColumns+` FROM orders o WHERE o.id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
		); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

// UpdateStatus changes whichever of the two statuses is set in update.
func (r *repository) UpdateStatus(ctx context.Context, orderID int64, update StatusUpdate) (*Order, error) {
	var orderStatus, paymentStatus sql.NullString
	if update.OrderStatus != nil {
		orderStatus = sql.NullString{String: string(*update.OrderStatus), Valid: true}
	}
	if update.PaymentStatus != nil {
		paymentStatus = sql.NullString{String: string(*update.PaymentStatus), Valid: true}
	}

	o, err := scanOrder(r.q.QueryRowContext(ctx, `
		UPDATE orders AS o
		SET order_status = COALESCE($1::text, o.order_status),
			payment_status = COALESCE($2::text, o.payment_status),
			updated_at = NOW()
		WHERE o.id = $3
		RETURNING`+orderColumns,
		orderStatus, paymentStatus, orderID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	return &o, nil
}
