package cart

import "context"

// Service defines the read side of carts exposed over HTTP.
type Service interface {
	GetCart(ctx context.Context, userID uint) ([]CartItem, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCart(ctx context.Context, userID uint) ([]CartItem, error) {
	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.GetCart(ctx, userID)
}
