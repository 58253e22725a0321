package checkout

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Result is handed back to the client after a successful payment.
type Result struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status,omitempty"`
	Redirect string `json:"redirect"`
}

func confirmationPath(orderID uuid.UUID) string {
	return fmt.Sprintf("/orders/%s/confirmation", orderID)
}

// finalize runs once a payment executor reported success. It is the only place the cart
// is emptied.
func (s *Service) finalize(ctx context.Context, f *Flow, orderID uuid.UUID, method domain.PaymentMethod) Result {
	logger := log.With().Str("order_id", orderID.String()).Str("session_id", f.Session.ID).Logger()

	if f.Identity.Authenticated() && s.rows != nil {
		if err := s.rows.DeleteCartRows(ctx, f.Identity.UserID); err != nil {
			logger.Warn().Err(err).Msg("failed to delete persisted cart rows")
		}
	}

	if f.Identity.Email != "" && s.notifier != nil {
		msg := s.confirmation(ctx, f, orderID, method)
		err := s.tasks.Go("order-confirmation", func(ctx context.Context) error {
			return s.notifier.SendOrderConfirmation(ctx, msg)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("order confirmation not scheduled")
		}
	}

	f.Cart.Clear()

	if err := s.discounts.Invalidate(ctx, f.Session.ID); err != nil {
		logger.Warn().Err(err).Msg("failed to clear cached discount")
	}

	f.Session.Wizard.Completed = true
	logger.Info().Str("method", string(method)).Msg("checkout finalized")

	return Result{OrderID: orderID.String(), Redirect: confirmationPath(orderID)}
}

// confirmation snapshots the cart before it is cleared.
func (s *Service) confirmation(ctx context.Context, f *Flow, orderID uuid.UUID, method domain.PaymentMethod) notify.OrderConfirmation {
	totals := s.discounts.Quote(ctx, f.Session.ID, f.Cart.Subtotal())
	lines := f.Cart.Lines()
	items := make([]notify.ConfirmationItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, notify.ConfirmationItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.EffectivePrice(),
		})
	}
	return notify.OrderConfirmation{
		OrderID:       orderID.String(),
		Email:         f.Identity.Email,
		UserID:        f.Identity.UserID,
		PaymentMethod: string(method),
		Address:       f.Session.Wizard.Address,
		Items:         items,
		Subtotal:      totals.Subtotal,
		Shipping:      totals.Shipping,
		Discount:      totals.Discount,
		DiscountCode:  totals.Code,
		TotalAmount:   totals.Total,
	}
}
