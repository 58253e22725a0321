package repository

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderRepository writes orders and their line items. Nothing here wraps the order and its
// items in one transaction.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderItem(ctx context.Context, item domain.OrderItem) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	SetPaymentReference(ctx context.Context, id uuid.UUID, method domain.PaymentMethod, reference string) error
	MarkPaid(ctx context.Context, id uuid.UUID, reference string) error
	SettleTickets(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// CartRowStore persists the carts of authenticated users.
type CartRowStore interface {
	ListCartRows(ctx context.Context, userID string) ([]domain.CartRow, error)
	ReplaceCartRows(ctx context.Context, userID string, rows []domain.CartRow) error
	DeleteCartRows(ctx context.Context, userID string) error
}
