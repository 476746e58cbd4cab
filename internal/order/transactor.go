package order

import (
	"context"
	"database/sql"

	"catering-be/internal/cart"
	"catering-be/internal/db"
	"catering-be/internal/product"
)

type StockStore interface {
	LockStock(ctx context.Context, productID int64) (int, error)
	DecrementStock(ctx context.Context, productID int64, qty int) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *Order) error
	InsertOrderItem(ctx context.Context, item *OrderItem) error
}

type CartStore interface {
	ClearCart(ctx context.Context, userID uint) (int64, error)
}

// TxStores are the stores of one checkout, all bound to the same transaction.
type TxStores struct {
	Stock  StockStore
	Orders OrderStore
	Carts  CartStore
}

// Transactor runs fn in a transaction that is committed only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s TxStores) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewTransactor(database *sql.DB) Transactor {
	return &sqlTransactor{db: database}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s TxStores) error) error {
	return db.WithTx(ctx, t.db, nil, func(tx *sql.Tx) error {
		return fn(ctx, TxStores{
			Stock:  product.NewRepository(tx),
			Orders: NewRepository(tx),
			Carts:  cart.NewRepository(tx),
		})
	})
}
