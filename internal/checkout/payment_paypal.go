package checkout

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/paypal"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateGatewayOrder opens a remote order at the gateway for the order written when PayPal
// was selected. An attempt still awaiting approval for the same order is handed back as is.
func (s *Service) CreateGatewayOrder(ctx context.Context, f *Flow, orderID string) (string, error) {
	current, ok := currentOrderID(f)
	if !ok || f.Session.Wizard.Completed {
		return "", ErrOrderNotInCheckout
	}
	if orderID != "" && orderID != current.String() {
		return "", ErrOrderNotInCheckout
	}

	if a := f.Session.Attempt; a != nil && a.OrderID == current.String() && a.State == domain.AttemptAwaitingApproval {
		return a.RemoteOrderID, nil
	}

	order, err := s.orders.GetOrderByID(ctx, current)
	if err != nil {
		return "", fmt.Errorf("load order %s: %w", current, err)
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return "", ErrIllegalTransition
	}

	attempt := &domain.PaymentAttempt{OrderID: current.String(), State: domain.AttemptCreated}
	f.Session.Attempt = attempt
	logger := log.With().Str("order_id", attempt.OrderID).Logger()

	amount, err := paypal.ConvertAmount(order.TotalAmount, s.cfg.ConversionRate)
	if err != nil {
		attempt.Advance(domain.AttemptFailed)
		return "", fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	token, err := s.gateway.AccessToken(ctx)
	if err != nil {
		attempt.Advance(domain.AttemptFailed)
		logger.Error().Err(err).Msg("gateway authentication failed")
		return "", fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	remoteID, err := s.gateway.CreateOrder(ctx, token, paypal.CreateOrderRequest{
		ReferenceID: attempt.OrderID,
		Amount:      amount,
		Currency:    s.cfg.GatewayCurrency,
	})
	if err != nil {
		attempt.Advance(domain.AttemptFailed)
		logger.Error().Err(err).Msg("gateway order creation failed")
		return "", fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	attempt.RemoteOrderID = remoteID
	attempt.Advance(domain.AttemptAwaitingApproval)
	logger.Info().Str("remote_order_id", remoteID).Str("amount", amount.StringFixed(2)).Msg("gateway order created")
	return remoteID, nil
}

// CaptureGatewayOrder captures an approved remote order. Only a COMPLETED capture marks
// the local order paid and finalizes the checkout; anything else leaves the order pending
// and the cart untouched.
func (s *Service) CaptureGatewayOrder(ctx context.Context, f *Flow, remoteID string) (Result, error) {
	attempt, err := activeAttempt(f, remoteID)
	if err != nil {
		return Result{}, err
	}
	orderID, err := uuid.Parse(attempt.OrderID)
	if err != nil {
		return Result{}, ErrOrderNotInCheckout
	}
	logger := log.With().Str("order_id", attempt.OrderID).Str("remote_order_id", remoteID).Logger()

	token, err := s.gateway.AccessToken(ctx)
	if err != nil {
		attempt.Advance(domain.AttemptFailed)
		logger.Error().Err(err).Msg("gateway authentication failed")
		return Result{}, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	status, err := s.gateway.CaptureOrder(ctx, token, remoteID)
	if err != nil {
		attempt.Advance(domain.AttemptFailed)
		logger.Error().Err(err).Msg("gateway capture failed")
		return Result{}, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	attempt.LastStatus = status
	if status != paypal.StatusCompleted {
		attempt.Advance(domain.AttemptFailed)
		logger.Warn().Str("status", status).Msg("gateway capture not completed")
		return Result{Status: status}, fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, status)
	}
	attempt.Advance(domain.AttemptCaptured)

	// the money is taken at this point; local write failures are left for reconciliation
	if err := s.orders.MarkPaid(ctx, orderID, remoteID); err != nil {
		logger.Error().Err(err).Msg("captured payment could not be recorded on the order")
	}
	settled, err := s.orders.SettleTickets(ctx, orderID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to settle tickets")
	} else if settled > 0 {
		logger.Info().Int64("tickets", settled).Msg("tickets settled")
	}

	res := s.finalize(ctx, f, orderID, domain.PaymentMethodPayPal)
	res.Status = status
	return res, nil
}

// CancelGatewayOrder records that the payer backed out at the gateway. The order stays
// pending and nothing is cleaned up.
func (s *Service) CancelGatewayOrder(ctx context.Context, f *Flow, remoteID string) error {
	attempt, err := activeAttempt(f, remoteID)
	if err != nil {
		return err
	}
	attempt.Advance(domain.AttemptAbandoned)
	log.Info().Str("order_id", attempt.OrderID).Str("remote_order_id", remoteID).Msg("gateway payment abandoned")
	return nil
}

func activeAttempt(f *Flow, remoteID string) (*domain.PaymentAttempt, error) {
	a := f.Session.Attempt
	if a == nil || remoteID == "" || a.RemoteOrderID != remoteID {
		return nil, ErrNoActiveAttempt
	}
	if a.State != domain.AttemptAwaitingApproval {
		return nil, ErrIllegalTransition
	}
	return a, nil
}
