package checkout

import (
	"context"
	"fmt"
	"slices"

	"github.com/fjod/storefront/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SinpeInstructions tell the payer where to send the transfer and what to write in it.
type SinpeInstructions struct {
	Phone   string          `json:"phone"`
	Banks   []string        `json:"banks"`
	Message string          `json:"message"`
	Amount  decimal.Decimal `json:"amount"`
}

func (s *Service) SinpeInstructions(ctx context.Context, f *Flow) SinpeInstructions {
	totals := s.discounts.Quote(ctx, f.Session.ID, f.Cart.Subtotal())
	return SinpeInstructions{
		Phone:   s.cfg.Sinpe.Phone,
		Banks:   s.cfg.Sinpe.Banks,
		Message: s.cfg.Sinpe.MessageTemplate,
		Amount:  totals.Total,
	}
}

// SubmitSinpe records a self-reported SINPE payment. Nothing is verified here; staff
// reconcile the reference later, so the order stays pending.
func (s *Service) SubmitSinpe(ctx context.Context, f *Flow, details domain.SinpeDetails) (Result, error) {
	w := &f.Session.Wizard
	if w.Completed || w.Step != domain.StepPayment {
		return Result{}, ErrIllegalTransition
	}
	if err := s.validateSinpe(f, details); err != nil {
		return Result{}, err
	}

	orderID, ok := currentOrderID(f)
	if !ok {
		var err error
		if orderID, err = s.CreateOrder(ctx, f, domain.PaymentMethodSinpe); err != nil {
			return Result{}, err
		}
	}

	if err := s.orders.SetPaymentReference(ctx, orderID, domain.PaymentMethodSinpe, details.Reference()); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrOrderWrite, err)
	}
	log.Info().Str("order_id", orderID.String()).Str("bank", details.Bank).Msg("sinpe payment reported")

	return s.finalize(ctx, f, orderID, domain.PaymentMethodSinpe), nil
}

func (s *Service) validateSinpe(f *Flow, details domain.SinpeDetails) error {
	fields := map[string]string{}
	if f.Session.Wizard.Method != domain.PaymentMethodSinpe {
		fields["method"] = "required"
	}
	if err := s.validateStruct(details); err != nil {
		verr, ok := err.(*ValidationError)
		if !ok {
			return err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	if _, bad := fields["bank"]; !bad && len(s.cfg.Sinpe.Banks) > 0 && !slices.Contains(s.cfg.Sinpe.Banks, details.Bank) {
		fields["bank"] = "oneof"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
