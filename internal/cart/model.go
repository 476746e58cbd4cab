package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID          int64           `json:"id"`
	UserID      uint            `json:"user_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
}
