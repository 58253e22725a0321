package checkout

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

// SubmitPlaceholder handles the methods that are shown but have no executor yet.
func (s *Service) SubmitPlaceholder(_ context.Context, f *Flow, raw string) error {
	method, err := domain.ParsePaymentMethod(raw)
	if err != nil || method.Implemented() {
		return newValidationError("method", "oneof")
	}
	if f.Session.Wizard.Completed || f.Session.Wizard.Step != domain.StepPayment {
		return ErrIllegalTransition
	}
	return ErrMethodNotImplemented
}
