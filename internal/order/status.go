package order

import "strings"

func IsCashOnDelivery(method string) bool {
	m := strings.TrimSpace(method)
	return strings.EqualFold(m, PaymentMethodCOD) || strings.EqualFold(m, paymentMethodCODAlias)
}

// DeriveInitialStatus returns the statuses a new order starts with. Cash on
// delivery is always awaiting payment; any other method is paid only when a
// proof was supplied.
func DeriveInitialStatus(paymentMethod string, hasProof bool) (OrderStatus, PaymentStatus) {
	if IsCashOnDelivery(paymentMethod) {
		return StatusProcessing, PaymentAwaiting
	}
	if hasProof {
		return StatusProcessing, PaymentReceived
	}
	return StatusProcessing, PaymentAwaiting
}
