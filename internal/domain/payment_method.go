package domain

import "fmt"

type PaymentMethod string

const (
	PaymentMethodSinpe    PaymentMethod = "sinpe"
	PaymentMethodPayPal   PaymentMethod = "paypal"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentMethodSinpe, PaymentMethodPayPal, PaymentMethodTransfer, PaymentMethodCard:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// Implemented reports whether the method has a working executor. Transfer and card are
// shown but cannot be submitted yet.
func (m PaymentMethod) Implemented() bool {
	return m == PaymentMethodSinpe || m == PaymentMethodPayPal
}

// SinpeDetails are self-reported by the payer and reconciled by staff.
type SinpeDetails struct {
	Bank        string `json:"bank" validate:"required"`
	Last4Digits string `json:"last4Digits" validate:"required,len=4,numeric"`
}

// Reference is the payment_reference stored on the order.
func (s SinpeDetails) Reference() string {
	return fmt.Sprintf("%s - %s", s.Bank, s.Last4Digits)
}
