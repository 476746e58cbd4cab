package cart

import "errors"

var (
	ErrUserNotAuthenticated = errors.New("user not authenticated")
	ErrFailedGetCartRows    = errors.New("failed to get cart rows")
	ErrFailedClearCart      = errors.New("failed to clear cart")
)
