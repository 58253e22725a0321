// Package checkout drives a browsing session from a filled cart to a written, paid (or
// self-reported) order: the two-step wizard, the order writer, the payment executors and
// the finalizer that runs after a payment succeeds.
package checkout

import (
	"context"
	"reflect"
	"strings"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/discount"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/paypal"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Flow is the state a single checkout request works on. The session is saved by the
// caller afterwards.
type Flow struct {
	Session  *session.Session
	Cart     *cart.Store
	Identity domain.Identity
}

type DiscountEvaluator interface {
	Quote(ctx context.Context, sessionID string, subtotal decimal.Decimal) discount.Totals
	Invalidate(ctx context.Context, sessionID string) error
}

type CartRowDeleter interface {
	DeleteCartRows(ctx context.Context, userID string) error
}

type TaskRunner interface {
	Go(name string, fn func(ctx context.Context) error) error
}

type SinpeConfig struct {
	Phone           string
	Banks           []string
	MessageTemplate string
}

type Config struct {
	Sinpe SinpeConfig
	// ConversionRate is how many local currency units buy one unit of GatewayCurrency.
	ConversionRate  decimal.Decimal
	GatewayCurrency string
}

type Service struct {
	cfg       Config
	orders    repository.OrderRepository
	rows      CartRowDeleter
	discounts DiscountEvaluator
	gateway   paypal.Gateway
	notifier  notify.Sender
	tasks     TaskRunner
	validate  *validator.Validate
}

func NewService(
	cfg Config,
	orders repository.OrderRepository,
	rows CartRowDeleter,
	discounts DiscountEvaluator,
	gateway paypal.Gateway,
	notifier notify.Sender,
	tasks TaskRunner,
) *Service {
	if cfg.GatewayCurrency == "" {
		cfg.GatewayCurrency = "USD"
	}
	return &Service{
		cfg:       cfg,
		orders:    orders,
		rows:      rows,
		discounts: discounts,
		gateway:   gateway,
		notifier:  notifier,
		tasks:     tasks,
		validate:  newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct turns validator failures into a ValidationError keyed by json field name.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fe.Tag()
	}
	return out
}
