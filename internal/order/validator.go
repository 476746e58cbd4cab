package order

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(12,2).
const amountScale = 2

// Accepted decimal exponent range for numeric request fields.
const (
	minExponent = -20
	maxExponent = 12
)

var (
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]{8,20}$`)
	totalEpsilon = decimal.RequireFromString("0.01")
	maxQuantity  = decimal.NewFromInt(math.MaxInt32)
	maxProductID = decimal.NewFromInt(math.MaxInt64)
	maxAmount    = decimal.RequireFromString("9999999999.99")
)

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// ValidateCheckout applies the checkout rules in order and returns the first
// failure as a *ValidationError.
func ValidateCheckout(req CheckoutRequest) (*CheckoutInput, error) {
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, invalid(ErrPaymentMethodRequired)
	}

	if len(req.Items) == 0 {
		return nil, invalid(ErrCartEmpty)
	}

	total, ok := positiveNumber(req.TotalAmount)
	if !ok || total.GreaterThan(maxAmount) || !total.Round(amountScale).IsPositive() {
		return nil, invalid(ErrInvalidTotal)
	}

	completion := strings.TrimSpace(req.DesiredCompletionDate)
	if completion == "" {
		return nil, invalid(ErrCompletionDateRequired)
	}

	deliveryOption := strings.TrimSpace(req.DeliveryOption)
	if deliveryOption == "" {
		return nil, invalid(ErrDeliveryOptionRequired)
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	if !phonePattern.MatchString(phone) {
		return nil, invalid(ErrInvalidPhone)
	}

	var address *string
	if req.DeliveryAddress != nil {
		if a := strings.TrimSpace(*req.DeliveryAddress); a != "" {
			address = &a
		}
	}
	if deliveryOption == DeliveryOptionDelivery && address == nil {
		return nil, invalid(ErrDeliveryAddressRequired)
	}

	items := make([]LineItem, 0, len(req.Items))
	calculated := decimal.Zero
	for _, it := range req.Items {
		line, ok := normalizeItem(it)
		if !ok {
			return nil, invalid(ErrIncompleteItem)
		}
		items = append(items, line)
		calculated = calculated.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if calculated.Sub(total).Abs().GreaterThan(totalEpsilon) {
		return nil, invalid(ErrTotalMismatch)
	}

	var proof *string
	if req.PaymentProof != nil {
		if p := strings.TrimSpace(*req.PaymentProof); p != "" {
			proof = &p
		}
	}

	return &CheckoutInput{
		PaymentMethod:         strings.TrimSpace(req.PaymentMethod),
		Items:                 items,
		TotalAmount:           total.Round(amountScale),
		DeliveryAddress:       address,
		PhoneNumber:           phone,
		DesiredCompletionDate: completion,
		DeliveryOption:        deliveryOption,
		PaymentProof:          proof,
	}, nil
}

func normalizeItem(it CheckoutItemRequest) (LineItem, bool) {
	productID, ok := positiveNumber(it.ProductID)
	if !ok || !productID.IsInteger() || productID.GreaterThan(maxProductID) {
		return LineItem{}, false
	}

	qty, ok := positiveNumber(it.Quantity)
	if !ok || !qty.IsInteger() || qty.GreaterThan(maxQuantity) {
		return LineItem{}, false
	}

	// the submitted price is the order item snapshot, so it must fit the column exactly
	price, ok := positiveNumber(it.Price)
	if !ok || price.GreaterThan(maxAmount) || !price.Equal(price.Round(amountScale)) {
		return LineItem{}, false
	}

	return LineItem{
		ProductID: productID.IntPart(),
		Quantity:  int(qty.IntPart()),
		Price:     price,
	}, true
}

// positiveNumber parses a positive decimal whose exponent lies within
// [minExponent, maxExponent]. The exponent is checked before any arithmetic.
func positiveNumber(n NumberText) (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Zero, false
	}
	return d, true
}
