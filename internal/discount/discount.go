// Package discount turns a cart subtotal into the amount to charge, applying a discount
// result previously stored by the redemption flow when it still matches the cart.
package discount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultShipping is the flat shipping fee in colones.
var DefaultShipping = decimal.NewFromInt(3200)

// Totals is the breakdown shown on the checkout page.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Code     string          `json:"code,omitempty"`
}

type Evaluator struct {
	client   *redis.Client
	shipping decimal.Decimal
}

func NewEvaluator(client *redis.Client, shipping decimal.Decimal) *Evaluator {
	if shipping.IsNegative() {
		shipping = DefaultShipping
	}
	return &Evaluator{client: client, shipping: shipping}
}

func (e *Evaluator) Shipping() decimal.Decimal {
	return e.shipping
}

// Load returns the stored discount of the session, or nil when there is none.
func (e *Evaluator) Load(ctx context.Context, sessionID string) (*domain.DiscountInfo, error) {
	data, err := e.client.Get(ctx, discountKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var info domain.DiscountInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal discount failed: %w", err)
	}
	return &info, nil
}

// Quote computes the totals for subtotal. A missing, invalid, unreadable or stale discount
// falls back to subtotal + shipping.
func (e *Evaluator) Quote(ctx context.Context, sessionID string, subtotal decimal.Decimal) Totals {
	t := Totals{
		Subtotal: subtotal,
		Shipping: e.shipping,
		Discount: decimal.Zero,
		Total:    subtotal.Add(e.shipping),
	}

	info, err := e.Load(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("ignoring unreadable discount")
		return t
	}
	if info == nil {
		return t
	}
	if !info.Consistent(subtotal, e.shipping) {
		log.Debug().Str("session_id", sessionID).Str("code", info.Code).Msg("discount does not match cart, ignoring")
		return t
	}

	t.Discount = info.DiscountAmount
	t.Total = info.FinalTotal
	t.Code = info.Code
	return t
}

func (e *Evaluator) Total(ctx context.Context, sessionID string, subtotal decimal.Decimal) decimal.Decimal {
	return e.Quote(ctx, sessionID, subtotal).Total
}

// Invalidate forgets the stored discount. The cart changed, or the order was finalized.
func (e *Evaluator) Invalidate(ctx context.Context, sessionID string) error {
	if err := e.client.Del(ctx, discountKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Store records a redemption result. It is the write side used by the redemption flow.
func (e *Evaluator) Store(ctx context.Context, sessionID string, info domain.DiscountInfo, ttl time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal discount failed: %w", err)
	}
	if err := e.client.Set(ctx, discountKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func discountKey(sessionID string) string {
	return fmt.Sprintf("discount:%s", sessionID)
}
