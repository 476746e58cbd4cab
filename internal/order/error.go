package order

import (
	"errors"
	"fmt"

	"catering-be/internal/product"
)

var (
	ErrPaymentMethodRequired   = errors.New("payment method required")
	ErrCartEmpty               = errors.New("cart is empty")
	ErrInvalidTotal            = errors.New("invalid total")
	ErrCompletionDateRequired  = errors.New("completion date required")
	ErrDeliveryOptionRequired  = errors.New("delivery option required")
	ErrInvalidPhone            = errors.New("invalid phone format")
	ErrDeliveryAddressRequired = errors.New("delivery address required")
	ErrIncompleteItem          = errors.New("incomplete item data")
	ErrTotalMismatch           = errors.New("total does not match items")
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrNoStatusChange       = errors.New("no status to update")
	ErrUserNotAuthenticated = errors.New("user not authenticated")
)

// ValidationError is a client error detected before any store access.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string { return "product not found" }
func (e *ProductNotFoundError) Unwrap() error { return product.ErrProductNotFound }

type InsufficientStockError struct {
	ProductID int64
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d; remaining: %d", e.ProductID, e.Remaining)
}

func (e *InsufficientStockError) Unwrap() error { return product.ErrInsufficientStock }

// TransactionError is an infrastructure failure during checkout. Its details
// are logged, never shown to the caller.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransactionError) Unwrap() error { return e.Err }
