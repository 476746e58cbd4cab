package rest

import (
	"errors"
	"net/http"

	"catering-be/internal/order"
)

const (
	msgInvalidBody   = "invalid request body"
	msgPlaceFailed   = "failed to place order"
	msgInternalError = "internal server error"
	msgUnauthorized  = "unauthorized"
)

// checkoutErrorStatus maps a checkout failure to a status and the message
// shown to the caller. Stock and catalog failures keep their message;
// infrastructure failures are reported generically.
func checkoutErrorStatus(err error) (int, string) {
	var (
		validation *order.ValidationError
		notFound   *order.ProductNotFoundError
		noStock    *order.InsufficientStockError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &notFound):
		return http.StatusInternalServerError, notFound.Error()
	case errors.As(err, &noStock):
		return http.StatusInternalServerError, noStock.Error()
	case errors.Is(err, order.ErrUserNotAuthenticated):
		return http.StatusUnauthorized, msgUnauthorized
	default:
		return http.StatusInternalServerError, msgPlaceFailed
	}
}

func orderErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, order.ErrInvalidStatus), errors.Is(err, order.ErrNoStatusChange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, order.ErrUserNotAuthenticated):
		return http.StatusUnauthorized, msgUnauthorized
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}
