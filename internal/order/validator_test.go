package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		PaymentMethod: "cod",
		Items: []CheckoutItemRequest{
			{ProductID: "5", Quantity: "2", Price: "10000"},
		},
		TotalAmount:           "20000",
		PhoneNumber:           "08123456789",
		DesiredCompletionDate: "2025-01-10",
		DeliveryOption:        "pickup",
	}
}

func TestValidateCheckout_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CheckoutRequest)
		wantErr error
	}{
		{"payment method missing", func(r *CheckoutRequest) { r.PaymentMethod = "  " }, ErrPaymentMethodRequired},
		{"items empty", func(r *CheckoutRequest) { r.Items = nil }, ErrCartEmpty},
		{"total missing", func(r *CheckoutRequest) { r.TotalAmount = "" }, ErrInvalidTotal},
		{"total zero", func(r *CheckoutRequest) { r.TotalAmount = "0" }, ErrInvalidTotal},
		{"total negative", func(r *CheckoutRequest) { r.TotalAmount = "-5" }, ErrInvalidTotal},
		{"total not a number", func(r *CheckoutRequest) { r.TotalAmount = "abc" }, ErrInvalidTotal},
		{"total beyond float range", func(r *CheckoutRequest) { r.TotalAmount = "1e400" }, ErrInvalidTotal},
		{"total huge exponent", func(r *CheckoutRequest) { r.TotalAmount = "1e10000000" }, ErrInvalidTotal},
		{"total tiny exponent", func(r *CheckoutRequest) { r.TotalAmount = "1e-10000000" }, ErrInvalidTotal},
		{"total above column", func(r *CheckoutRequest) { r.TotalAmount = "10000000000" }, ErrInvalidTotal},
		{"total rounds to zero", func(r *CheckoutRequest) { r.TotalAmount = "0.001" }, ErrInvalidTotal},
		{"total literal true", func(r *CheckoutRequest) { r.TotalAmount = "true" }, ErrInvalidTotal},
		{"completion date missing", func(r *CheckoutRequest) { r.DesiredCompletionDate = "" }, ErrCompletionDateRequired},
		{"delivery option missing", func(r *CheckoutRequest) { r.DeliveryOption = "" }, ErrDeliveryOptionRequired},
		{"phone missing", func(r *CheckoutRequest) { r.PhoneNumber = "" }, ErrInvalidPhone},
		{"phone too short", func(r *CheckoutRequest) { r.PhoneNumber = "0812" }, ErrInvalidPhone},
		{"phone letters", func(r *CheckoutRequest) { r.PhoneNumber = "0812abc4567" }, ErrInvalidPhone},
		{"phone too long", func(r *CheckoutRequest) { r.PhoneNumber = "081234567890123456789" }, ErrInvalidPhone},
		{"delivery without address", func(r *CheckoutRequest) { r.DeliveryOption = "delivery" }, ErrDeliveryAddressRequired},
		{"delivery with blank address", func(r *CheckoutRequest) {
			r.DeliveryOption = "delivery"
			r.DeliveryAddress = strPtr("   ")
		}, ErrDeliveryAddressRequired},
		{"item without product", func(r *CheckoutRequest) { r.Items[0].ProductID = "" }, ErrIncompleteItem},
		{"item zero product", func(r *CheckoutRequest) { r.Items[0].ProductID = "0" }, ErrIncompleteItem},
		{"item zero quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = "0" }, ErrIncompleteItem},
		{"item fractional quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = "1.5" }, ErrIncompleteItem},
		{"item missing price", func(r *CheckoutRequest) { r.Items[0].Price = "" }, ErrIncompleteItem},
		{"item negative price", func(r *CheckoutRequest) { r.Items[0].Price = "-1" }, ErrIncompleteItem},
		{"item fractional product", func(r *CheckoutRequest) { r.Items[0].ProductID = "5.5" }, ErrIncompleteItem},
		{"item product not a number", func(r *CheckoutRequest) { r.Items[0].ProductID = "abc" }, ErrIncompleteItem},
		{"item product beyond int64", func(r *CheckoutRequest) { r.Items[0].ProductID = "9223372036854775808" }, ErrIncompleteItem},
		{"item quantity huge exponent", func(r *CheckoutRequest) { r.Items[0].Quantity = "1e10000000" }, ErrIncompleteItem},
		{"item price beyond float range", func(r *CheckoutRequest) {
			r.Items[0].Price = "1e400"
			r.TotalAmount = "1e400"
		}, ErrInvalidTotal},
		{"item price huge exponent", func(r *CheckoutRequest) {
			r.Items[0].Price = "1e10000000"
			r.TotalAmount = "1"
		}, ErrIncompleteItem},
		{"item price above column", func(r *CheckoutRequest) {
			r.Items[0].Price = "1e10"
			r.Items[0].Quantity = "1"
			r.TotalAmount = "9999999999"
		}, ErrIncompleteItem},
		{"item price sub-cent", func(r *CheckoutRequest) {
			r.Items[0].Price = "10.005"
			r.Items[0].Quantity = "1"
			r.TotalAmount = "10"
		}, ErrIncompleteItem},
		{"item price rounds to zero", func(r *CheckoutRequest) {
			r.Items[0].Price = "0.001"
			r.Items[0].Quantity = "1"
			r.TotalAmount = "0.01"
		}, ErrIncompleteItem},
		{"total mismatch", func(r *CheckoutRequest) { r.TotalAmount = "19999.98" }, ErrTotalMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			in, err := ValidateCheckout(req)

			assert.Nil(t, in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantErr.Error(), err.Error())
		})
	}
}

func TestValidateCheckout_RuleOrder(t *testing.T) {
	// several rules broken at once: the earliest one wins
	req := CheckoutRequest{
		PaymentMethod: "transfer",
		Items:         []CheckoutItemRequest{{}},
		TotalAmount:   "100",
		PhoneNumber:   "x",
	}

	_, err := ValidateCheckout(req)
	assert.ErrorIs(t, err, ErrCompletionDateRequired)
}

func TestValidateCheckout_TotalEpsilon(t *testing.T) {
	t.Run("within 0.01 accepted", func(t *testing.T) {
		req := validRequest()
		req.TotalAmount = "20000.01"
		_, err := ValidateCheckout(req)
		assert.NoError(t, err)

		req.TotalAmount = "19999.99"
		_, err = ValidateCheckout(req)
		assert.NoError(t, err)
	})

	t.Run("beyond 0.01 rejected", func(t *testing.T) {
		req := validRequest()
		req.TotalAmount = "20000.02"
		_, err := ValidateCheckout(req)
		assert.ErrorIs(t, err, ErrTotalMismatch)
	})

	t.Run("fractional prices sum exactly", func(t *testing.T) {
		req := validRequest()
		req.Items = []CheckoutItemRequest{
			{ProductID: "1", Quantity: "3", Price: "0.1"},
			{ProductID: "2", Quantity: "1", Price: "0.2"},
		}
		req.TotalAmount = "0.5"
		_, err := ValidateCheckout(req)
		assert.NoError(t, err)
	})
}

func TestValidateCheckout_Normalizes(t *testing.T) {
	req := validRequest()
	req.PaymentMethod = " transfer "
	req.DeliveryOption = "delivery"
	req.DeliveryAddress = strPtr("  Jl. Merdeka 1  ")
	req.PhoneNumber = " +62 812-3456-789 "
	req.PaymentProof = strPtr("proof-123.jpg")
	req.Items[0].Quantity = "2.0"

	in, err := ValidateCheckout(req)
	require.NoError(t, err)

	assert.Equal(t, "transfer", in.PaymentMethod)
	require.NotNil(t, in.DeliveryAddress)
	assert.Equal(t, "Jl. Merdeka 1", *in.DeliveryAddress)
	assert.Equal(t, "+62 812-3456-789", in.PhoneNumber)
	assert.True(t, in.HasPaymentProof())
	require.Len(t, in.Items, 1)
	assert.Equal(t, 2, in.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(10000).Equal(in.Items[0].Price))
	assert.True(t, decimal.NewFromInt(20000).Equal(in.TotalAmount))
}

func TestValidateCheckout_PickupDropsBlankAddress(t *testing.T) {
	req := validRequest()
	req.DeliveryAddress = strPtr("  ")

	in, err := ValidateCheckout(req)
	require.NoError(t, err)
	assert.Nil(t, in.DeliveryAddress)
	assert.False(t, in.HasPaymentProof())
}

func TestValidateCheckout_ExtremeNumbersAreCheap(t *testing.T) {
	req := validRequest()
	req.Items[0].Price = "1e2147483647"
	req.Items[0].Quantity = "1e-2147483647"
	req.TotalAmount = "1"

	start := time.Now()
	_, err := ValidateCheckout(req)

	assert.ErrorIs(t, err, ErrIncompleteItem)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestValidateCheckout_Amounts(t *testing.T) {
	t.Run("two decimals and ceiling accepted", func(t *testing.T) {
		req := validRequest()
		req.Items[0].Price = "9999999999.99"
		req.Items[0].Quantity = "1"
		req.TotalAmount = "9999999999.99"

		in, err := ValidateCheckout(req)
		require.NoError(t, err)
		assert.Equal(t, "9999999999.99", in.Items[0].Price.String())
	})

	t.Run("trailing zeros are not extra precision", func(t *testing.T) {
		req := validRequest()
		req.Items[0].Price = "10000.000"

		_, err := ValidateCheckout(req)
		assert.NoError(t, err)
	})

	t.Run("float noise in total is rounded to cents", func(t *testing.T) {
		req := validRequest()
		req.Items = []CheckoutItemRequest{
			{ProductID: "1", Quantity: "3", Price: "0.1"},
		}
		req.TotalAmount = "0.30000000000000004"

		in, err := ValidateCheckout(req)
		require.NoError(t, err)
		assert.Equal(t, "0.3", in.TotalAmount.String())
	})
}

func TestCheckoutRequest_DecodesNumbers(t *testing.T) {
	body := `{"paymentMethod":"cod","items":[{"product_id":5,"quantity":2,"price":10000}],
		"totalAmount":20000,"phoneNumber":"08123456789","desiredCompletionDate":"2025-01-10","deliveryOption":"pickup"}`

	var req CheckoutRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in, err := ValidateCheckout(req)
	require.NoError(t, err)
	assert.Equal(t, int64(5), in.Items[0].ProductID)
}

func TestCheckoutRequest_DecodesLooseNumbers(t *testing.T) {
	decode := func(t *testing.T, items, total string) CheckoutRequest {
		t.Helper()
		body := `{"paymentMethod":"cod","items":` + items + `,"totalAmount":` + total +
			`,"phoneNumber":"08123456789","desiredCompletionDate":"2025-01-10","deliveryOption":"pickup"}`
		var req CheckoutRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		return req
	}

	t.Run("numeric strings accepted", func(t *testing.T) {
		req := decode(t, `[{"product_id":"5","quantity":"2","price":"10000"}]`, `"20000"`)

		in, err := ValidateCheckout(req)
		require.NoError(t, err)
		assert.Equal(t, int64(5), in.Items[0].ProductID)
		assert.Equal(t, 2, in.Items[0].Quantity)
	})

	t.Run("non-numeric total", func(t *testing.T) {
		req := decode(t, `[{"product_id":5,"quantity":2,"price":10000}]`, `"abc"`)

		_, err := ValidateCheckout(req)
		assert.ErrorIs(t, err, ErrInvalidTotal)
	})

	t.Run("non-numeric product", func(t *testing.T) {
		req := decode(t, `[{"product_id":"five","quantity":2,"price":10000}]`, `20000`)

		_, err := ValidateCheckout(req)
		assert.ErrorIs(t, err, ErrIncompleteItem)
	})

	t.Run("null and object values", func(t *testing.T) {
		req := decode(t, `[{"product_id":null,"quantity":{"n":2},"price":10000}]`, `20000`)

		_, err := ValidateCheckout(req)
		assert.ErrorIs(t, err, ErrIncompleteItem)
	})
}
