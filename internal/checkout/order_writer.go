package checkout

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateOrder writes a pending order for the current cart and remembers its id in the
// wizard. Every call writes a new order; callers decide whether one already exists.
//
// The order row and its items are separate writes. A failed item insert is logged and
// leaves the order in place.
func (s *Service) CreateOrder(ctx context.Context, f *Flow, method domain.PaymentMethod) (uuid.UUID, error) {
	w := &f.Session.Wizard
	if w.Address == nil {
		return uuid.Nil, newValidationError("address", "required")
	}
	if f.Identity.UserID == "" {
		return uuid.Nil, ErrMissingIdentity
	}
	if f.Cart.IsEmpty() {
		return uuid.Nil, ErrEmptyCart
	}

	totals := s.discounts.Quote(ctx, f.Session.ID, f.Cart.Subtotal())
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          f.Identity.UserID,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingStatus:  domain.ShippingStatusPending,
		TotalAmount:     totals.Total,
		ShippingAddress: *w.Address,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrOrderWrite, err)
	}

	lines := f.Cart.Lines()
	failed := 0
	for _, line := range lines {
		item := domain.OrderItem{
			OrderID:   order.ID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Price:     line.Product.EffectivePrice(),
		}
		if err := s.orders.CreateOrderItem(ctx, item); err != nil {
			failed++
			log.Error().Err(err).
				Str("order_id", order.ID.String()).
				Int64("product_id", line.Product.ID).
				Msg("failed to insert order item, order left incomplete")
		}
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", order.UserID).
		Str("method", string(method)).
		Str("total", order.TotalAmount.String()).
		Int("items", len(lines)-failed).
		Msg("order created")

	w.OrderID = order.ID.String()
	return order.ID, nil
}

// currentOrderID is the order this checkout already wrote, if any.
func currentOrderID(f *Flow) (uuid.UUID, bool) {
	if f.Session.Wizard.OrderID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(f.Session.Wizard.OrderID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", f.Session.Wizard.OrderID).Msg("ignoring malformed order id in session")
		return uuid.Nil, false
	}
	return id, true
}
