package checkout

import (
	"context"

	"github.com/fjod/storefront/internal/discount"
	"github.com/fjod/storefront/internal/domain"
	"github.com/rs/zerolog/log"
)

type MethodOption struct {
	Method      domain.PaymentMethod `json:"method"`
	Implemented bool                 `json:"implemented"`
}

var methodOptions = []MethodOption{
	{Method: domain.PaymentMethodSinpe, Implemented: true},
	{Method: domain.PaymentMethodPayPal, Implemented: true},
	{Method: domain.PaymentMethodTransfer},
	{Method: domain.PaymentMethodCard},
}

// Summary is what the checkout page renders.
type Summary struct {
	Step     domain.CheckoutStep     `json:"step"`
	StepName string                  `json:"step_name"`
	Address  *domain.ShippingAddress `json:"address,omitempty"`
	Method   domain.PaymentMethod    `json:"method,omitempty"`
	OrderID  string                  `json:"order_id,omitempty"`
	Lines    []domain.CartLine       `json:"lines"`
	Totals   discount.Totals         `json:"totals"`
	Methods  []MethodOption          `json:"methods"`
}

// MethodSelection is the outcome of picking a payment method.
type MethodSelection struct {
	Method  domain.PaymentMethod `json:"method"`
	OrderID string               `json:"order_id,omitempty"`
}

// Begin opens the wizard. A session whose previous checkout finished starts over at the
// address step.
func (s *Service) Begin(ctx context.Context, f *Flow) Summary {
	if f.Session.Wizard.Completed {
		f.Session.ResetWizard()
	}
	return s.summary(ctx, f)
}

func (s *Service) summary(ctx context.Context, f *Flow) Summary {
	w := f.Session.Wizard
	return Summary{
		Step:     w.Step,
		StepName: w.Step.String(),
		Address:  w.Address,
		Method:   w.Method,
		OrderID:  w.OrderID,
		Lines:    f.Cart.Lines(),
		Totals:   s.discounts.Quote(ctx, f.Session.ID, f.Cart.Subtotal()),
		Methods:  methodOptions,
	}
}

// SubmitAddress validates the shipping address and moves the wizard to the payment step.
func (s *Service) SubmitAddress(ctx context.Context, f *Flow, addr domain.ShippingAddress) (Summary, error) {
	if f.Session.Wizard.Completed {
		f.Session.ResetWizard()
	}
	w := &f.Session.Wizard
	if w.Step != domain.StepAddress {
		return Summary{}, ErrIllegalTransition
	}
	if f.Cart.IsEmpty() {
		return Summary{}, ErrEmptyCart
	}
	if err := s.validateStruct(addr); err != nil {
		return Summary{}, err
	}

	// an order already written carries the old address, so a new one is needed
	if w.Address == nil || *w.Address != addr {
		if prev := w.OrderID; f.Session.DropPendingOrder() {
			log.Info().Str("order_id", prev).Msg("address changed, previous pending order abandoned")
		}
	}

	w.Address = &addr
	w.Step = domain.StepPayment
	return s.summary(ctx, f), nil
}

// Back returns to the address step. Nothing is discarded.
func (s *Service) Back(ctx context.Context, f *Flow) (Summary, error) {
	w := &f.Session.Wizard
	if w.Completed || w.Step != domain.StepPayment {
		return Summary{}, ErrIllegalTransition
	}
	w.Step = domain.StepAddress
	return s.summary(ctx, f), nil
}

// SelectMethod records the payment method. Choosing PayPal writes the order right away
// so the gateway has an id to reference; an order already written in this checkout is
// reused.
func (s *Service) SelectMethod(ctx context.Context, f *Flow, raw string) (MethodSelection, error) {
	w := &f.Session.Wizard
	if w.Completed || w.Step != domain.StepPayment {
		return MethodSelection{}, ErrIllegalTransition
	}
	method, err := domain.ParsePaymentMethod(raw)
	if err != nil {
		return MethodSelection{}, newValidationError("method", "oneof")
	}

	w.Method = method
	if method == domain.PaymentMethodPayPal && w.OrderID == "" {
		if _, err := s.CreateOrder(ctx, f, method); err != nil {
			return MethodSelection{}, err
		}
	}
	return MethodSelection{Method: method, OrderID: w.OrderID}, nil
}
