package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"catering-be/internal/logger"
	"catering-be/internal/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced = "OrderPlaced"
	eventVersion     = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemPayload struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID       int64           `json:"order_id"`
	UserID        uint            `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	OrderStatus   string          `json:"order_status"`
	PaymentStatus string          `json:"payment_status"`
	OrderDate     time.Time       `json:"order_date"`
	Items         []ItemPayload   `json:"items"`
}

// PartitionKey keeps every event of one order on the same partition.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}

// NewOrderPlaced builds the envelope for a committed order. The request id
// in ctx, if any, becomes the correlation id.
func NewOrderPlaced(ctx context.Context, producer string, o order.Order) (Envelope, error) {
	items := make([]ItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemPayload{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		OrderStatus:   string(o.OrderStatus),
		PaymentStatus: string(o.PaymentStatus),
		OrderDate:     o.CreatedAt,
		Items:         items,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  eventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: logger.RequestIDFrom(ctx),
		Payload:       payload,
	}, nil
}
