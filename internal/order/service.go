package order

import (
	"context"
	"errors"
	"sort"
	"time"

	"catering-be/internal/logger"
	"catering-be/internal/metrics"
	"catering-be/internal/product"
	"catering-be/internal/utils"

	"go.uber.org/zap"
)

// Checkout results as reported to the CheckoutRecorder.
const (
	ResultPlaced     = "placed"
	ResultRejected   = "rejected"
	ResultOutOfStock = "out_of_stock"
	ResultNotFound   = "not_found"
	ResultFailed     = "failed"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// EventPublisher announces committed orders.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o Order) error
}

type CheckoutRecorder interface {
	ObserveCheckout(result string, d time.Duration)
}

type Service interface {
	PlaceOrder(ctx context.Context, userID uint, req CheckoutRequest) (*PlacedOrder, error)
	ListOrders(ctx context.Context, q ListQuery) ([]Order, error)
	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, update StatusUpdate) (*Order, error)
}

type service struct {
	repo      Repository
	tx        Transactor
	publisher EventPublisher
	recorder  CheckoutRecorder
	timeout   time.Duration
}

type noopPublisher struct{}

func (noopPublisher) PublishOrderPlaced(context.Context, Order) error { return nil }

type noopRecorder struct{}

func (noopRecorder) ObserveCheckout(string, time.Duration) {}

// NewService wires the order service. A nil publisher or recorder disables
// that concern; a zero timeout leaves checkouts bounded only by ctx.
func NewService(
	repo Repository,
	tx Transactor,
	publisher EventPublisher,
	recorder CheckoutRecorder,
	timeout time.Duration,
) Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &service{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		recorder:  recorder,
		timeout:   timeout,
	}
}

// sortedLines orders line items by product id so that every checkout takes
// row locks in the same global order.
func sortedLines(items []LineItem) []LineItem {
	lines := make([]LineItem, len(items))
	copy(lines, items)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].ProductID < lines[j].ProductID
	})
	return lines
}

func (s *service) PlaceOrder(ctx context.Context, userID uint, req CheckoutRequest) (*PlacedOrder, error) {
	timer := metrics.StartTimer()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Uint("user_id", userID),
	)

	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}

	input, err := ValidateCheckout(req)
	if err != nil {
		log.Info("checkout rejected", zap.Error(err))
		s.recorder.ObserveCheckout(ResultRejected, timer.Duration())
		return nil, err
	}

	orderStatus, paymentStatus := DeriveInitialStatus(input.PaymentMethod, input.HasPaymentProof())

	o := Order{
		UserID:                userID,
		TotalAmount:           input.TotalAmount,
		PaymentMethod:         input.PaymentMethod,
		OrderStatus:           orderStatus,
		PaymentStatus:         paymentStatus,
		PaymentProof:          input.PaymentProof,
		DesiredCompletionDate: input.DesiredCompletionDate,
		DeliveryOption:        input.DeliveryOption,
		DeliveryAddress:       input.DeliveryAddress,
		PhoneNumber:           input.PhoneNumber,
	}
	lines := sortedLines(input.Items)

	txCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Debug("checkout transaction start", zap.Int("lines", len(lines)))

	err = s.tx.WithinTx(txCtx, func(ctx context.Context, st TxStores) error {
		o.Items = o.Items[:0]

		if err := st.Orders.InsertOrder(ctx, &o); err != nil {
			return &TransactionError{Op: "insert order", Err: err}
		}

		for _, line := range lines {
			stock, err := st.Stock.LockStock(ctx, line.ProductID)
			if errors.Is(err, product.ErrProductNotFound) {
				return &ProductNotFoundError{ProductID: line.ProductID}
			}
			if err != nil {
				return &TransactionError{Op: "lock stock", Err: err}
			}

			if stock < line.Quantity {
				return &InsufficientStockError{ProductID: line.ProductID, Remaining: stock}
			}

			item := OrderItem{
				OrderID:   o.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}
			if err := st.Orders.InsertOrderItem(ctx, &item); err != nil {
				return &TransactionError{Op: "insert order item", Err: err}
			}

			if err := st.Stock.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return &InsufficientStockError{ProductID: line.ProductID, Remaining: stock}
				}
				return &TransactionError{Op: "decrement stock", Err: err}
			}

			o.Items = append(o.Items, item)
		}

		if _, err := st.Carts.ClearCart(ctx, userID); err != nil {
			return &TransactionError{Op: "clear cart", Err: err}
		}

		return nil
	})
	if err != nil {
		err = classifyCheckoutError(err)
		result := checkoutResult(err)
		s.recorder.ObserveCheckout(result, timer.Duration())

		if result == ResultFailed {
			log.Error("checkout failed", zap.Error(err))
		} else {
			log.Info("checkout aborted", zap.String("result", result), zap.Error(err))
		}
		return nil, err
	}

	s.recorder.ObserveCheckout(ResultPlaced, timer.Duration())
	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("payment_status", string(o.PaymentStatus)),
		zap.Duration("duration", timer.Duration()),
	)

	// the order is committed; a lost event must not fail the checkout
	if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
		log.Warn("failed to publish order placed event", zap.Int64("order_id", o.ID), zap.Error(err))
	}

	return &PlacedOrder{
		ID:            o.ID,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		OrderDate:     o.CreatedAt,
	}, nil
}

// classifyCheckoutError wraps failures raised outside the checkout body, such
// as begin or commit errors, into a TransactionError.
func classifyCheckoutError(err error) error {
	var (
		notFound *ProductNotFoundError
		noStock  *InsufficientStockError
		txErr    *TransactionError
	)
	if errors.As(err, &notFound) || errors.As(err, &noStock) || errors.As(err, &txErr) {
		return err
	}
	return &TransactionError{Op: "transaction", Err: err}
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		return ResultNotFound
	case errors.Is(err, product.ErrInsufficientStock):
		return ResultOutOfStock
	default:
		return ResultFailed
	}
}

func (s *service) ListOrders(ctx context.Context, q ListQuery) ([]Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	filter := ListFilter{Limit: defaultListLimit}
	if !utils.IsAdmin(ctx) {
		filter.UserID = &userID
	}

	if q.Status != "" {
		status := OrderStatus(q.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		filter.Status = &status
	}

	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	page := 1
	if q.Page > 0 {
		page = q.Page
	}
	filter.Offset = (page - 1) * filter.Limit

	return s.repo.ListOrders(ctx, filter)
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	o, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.UserID != userID && !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, update StatusUpdate) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.Int64("order_id", orderID),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	if update.OrderStatus == nil && update.PaymentStatus == nil {
		return nil, ErrNoStatusChange
	}
	if update.OrderStatus != nil && !update.OrderStatus.Valid() {
		return nil, ErrInvalidStatus
	}
	if update.PaymentStatus != nil && !update.PaymentStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.UpdateStatus(ctx, orderID, update)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("failed to update order status", zap.Error(err))
		}
		return nil, err
	}

	log.Info("order status updated",
		zap.String("order_status", string(o.OrderStatus)),
		zap.String("payment_status", string(o.PaymentStatus)),
	)
	return o, nil
}
