package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentAwaiting  PaymentStatus = "awaiting payment"
	PaymentReceived  PaymentStatus = "payment received"
	PaymentCancelled PaymentStatus = "payment cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentAwaiting, PaymentReceived, PaymentCancelled:
		return true
	}
	return false
}

const (
	PaymentMethodCOD       = "cash-on-delivery"
	paymentMethodCODAlias  = "cod"
	DeliveryOptionDelivery = "delivery"
)

type Order struct {
	ID                    int64           `json:"id"`
	UserID                uint            `json:"user_id"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	PaymentMethod         string          `json:"payment_method"`
	OrderStatus           OrderStatus     `json:"order_status"`
	PaymentStatus         PaymentStatus   `json:"payment_status"`
	PaymentProof          *string         `json:"payment_proof,omitempty"`
	DesiredCompletionDate string          `json:"desired_completion_date"`
	DeliveryOption        string          `json:"delivery_option"`
	DeliveryAddress       *string         `json:"delivery_address"`
	PhoneNumber           string          `json:"phone_number"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Items                 []OrderItem     `json:"items,omitempty"`
}

// OrderItem keeps the unit price submitted at checkout, independent of later
// catalog price changes.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// NumberText is a numeric request field as submitted. JSON strings are
// unquoted and any other value is kept verbatim, so a malformed number
// surfaces as a validation error instead of a decode error.
type NumberText string

func (n *NumberText) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumberText(s)
	default:
		*n = NumberText(b)
	}
	return nil
}

// CheckoutRequest is the raw checkout body. Numeric fields stay as
// NumberText until validation.
type CheckoutRequest struct {
	PaymentMethod         string                `json:"paymentMethod"`
	Items                 []CheckoutItemRequest `json:"items"`
	TotalAmount           NumberText            `json:"totalAmount"`
	DeliveryAddress       *string               `json:"deliveryAddress"`
	PhoneNumber           string                `json:"phoneNumber"`
	DesiredCompletionDate string                `json:"desiredCompletionDate"`
	DeliveryOption        string                `json:"deliveryOption"`
	PaymentProof          *string               `json:"paymentProof"`
}

type CheckoutItemRequest struct {
	ProductID NumberText `json:"product_id"`
	Quantity  NumberText `json:"quantity"`
	Price     NumberText `json:"price"`
}

// CheckoutInput is a validated, normalized checkout.
type CheckoutInput struct {
	PaymentMethod         string
	Items                 []LineItem
	TotalAmount           decimal.Decimal
	DeliveryAddress       *string
	PhoneNumber           string
	DesiredCompletionDate string
	DeliveryOption        string
	PaymentProof          *string
}

func (in CheckoutInput) HasPaymentProof() bool {
	return in.PaymentProof != nil
}

type LineItem struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// PlacedOrder is what the caller sees after a successful checkout.
type PlacedOrder struct {
	ID            int64         `json:"id"`
	OrderStatus   OrderStatus   `json:"order_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OrderDate     time.Time     `json:"order_date"`
}

type ListQuery struct {
	Status string
	Limit  int
	Page   int
}

// ListFilter is a normalized ListQuery. A nil UserID lists every user.
type ListFilter struct {
	UserID *uint
	Status *OrderStatus
	Limit  int
	Offset int
}

type StatusUpdate struct {
	OrderStatus   *OrderStatus   `json:"order_status"`
	PaymentStatus *PaymentStatus `json:"payment_status"`
}
